package logger

import (
	"errors"
	"testing"
)

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(Config{Level: "debug", Development: true})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}

	log.LogInfo("started", map[string]interface{}{"component": "test"})
	log.LogDebug("detail", nil)
	log.LogWarn("warning", map[string]interface{}{"count": 3})

	original := errors.New("boom")
	returned := log.LogError(original, "operation failed")
	if returned != original {
		t.Errorf("LogError should return its argument, got %v", returned)
	}
}

func TestNewLoggerRejectsInvalidLevel(t *testing.T) {
	if _, err := NewLogger(Config{Level: "shouting"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestConvertFields(t *testing.T) {
	if got := convertFields(nil); got != nil {
		t.Errorf("expected nil for empty fields, got %v", got)
	}

	fields := convertFields(map[string]interface{}{"a": 1, "b": "two"})
	if len(fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(fields))
	}
}
