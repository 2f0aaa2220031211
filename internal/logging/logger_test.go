package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixbatch/internal/config"
	"pixbatch/internal/logging"
	"pixbatch/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, err := logging.New(logging.Options{Level: "loud"}); err == nil {
		t.Fatal("expected error for unsupported level")
	}
}

func TestConsoleLoggerSubjectAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "0f8fad5b-d9cb-469f-a165-70867728950e")
	ctx = services.WithItemID(ctx, "item-2")
	logger = logging.NewComponentLogger(logger, "executor")
	logging.WithContext(ctx, logger).Info("item converted", logging.Int64("result_bytes", 2048))

	line := buf.String()
	for _, want := range []string{"INFO [executor]", "Run 0f8fad5b · Item item-2", "– item converted", "result_bytes=2048"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source location at info level, got %q", line)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("decode skipped")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected source location in debug output, got %q", buf.String())
	}
}

func TestJSONLoggerUsesStandardKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "conversion failed", "item_failed", logging.Error(errors.New("boom")))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected level warn, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("expected ts key")
	}
	if payload[logging.FieldEventType] != "item_failed" {
		t.Fatalf("expected event_type item_failed, got %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] == nil || payload[logging.FieldImpact] == nil {
		t.Fatalf("expected error_hint and impact defaults, got %v", payload)
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		run, item, want string
	}{
		{"", "", ""},
		{"", "a", "Item a"},
		{"r1", "", "Run r1"},
		{"0f8fad5b-d9cb-469f-a165-70867728950e", "a", "Run 0f8fad5b · Item a"},
	}
	for _, tt := range tests {
		if got := logging.FormatSubject(tt.run, tt.item); got != tt.want {
			t.Fatalf("FormatSubject(%q, %q) = %q, want %q", tt.run, tt.item, got, tt.want)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
}
