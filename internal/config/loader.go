package config

import (
	"fmt"

	"github.com/imthatgin/querylib/internal/db"
	"github.com/imthatgin/querylib/internal/logger"
	"github.com/spf13/viper"
)

// Config carries everything the server needs to boot.
type Config struct {
	Database   db.Config
	Server     ServerConfig
	Migrations MigrationsConfig
	Logging    logger.Config
}

type ServerConfig struct {
	Addr string
}

type MigrationsConfig struct {
	Dir       string
	AutoApply bool
}

func DefaultConfig() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr: ":8080",
		},
		Migrations: MigrationsConfig{
			Dir:       "migrations",
			AutoApply: false,
		},
		Logging: logger.Config{
			Level:       "info",
			Development: false,
		},
	}
}

func Load(configPath string) (Config, error) {
	// Start with default
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()           // allow environment overrides
	v.SetEnvPrefix("QUERYLIB") // map env vars like QUERYLIB_DATABASE.HOST

	// Optional: Map nested keys to flat env vars
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("migrations.dir")
	v.BindEnv("migrations.auto_apply")
	v.BindEnv("logging.level")
	v.BindEnv("logging.development")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("migrations.dir") {
		cfg.Migrations.Dir = v.GetString("migrations.dir")
	}
	if v.IsSet("migrations.auto_apply") {
		cfg.Migrations.AutoApply = v.GetBool("migrations.auto_apply")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.development") {
		cfg.Logging.Development = v.GetBool("logging.development")
	}

	return cfg, nil
}
