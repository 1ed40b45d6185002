package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how the logger is built.
type Config struct {
	Level       string
	Development bool
}

type zapLogger struct {
	logger *zap.Logger
}

// NewLogger builds a zap-backed Logger from the given config.
func NewLogger(cfg Config) (Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	built, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &zapLogger{logger: built}, nil
}

func (l *zapLogger) LogDebug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, convertFields(fields)...)
}

func (l *zapLogger) LogInfo(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, convertFields(fields)...)
}

func (l *zapLogger) LogWarn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, convertFields(fields)...)
}

// LogError logs err with msg for context and returns err unchanged so
// callers can log and propagate in one statement.
func (l *zapLogger) LogError(err error, msg string) error {
	l.logger.Error(msg, zap.Error(err))
	return err
}

func (l *zapLogger) LogFatal(err error, msg string) {
	l.logger.Fatal(msg, zap.Error(err))
}

func convertFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	zapFields := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		zapFields = append(zapFields, zap.Any(key, value))
	}
	return zapFields
}
