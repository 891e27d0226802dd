package logging_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loom/internal/logging"
	"loom/internal/services"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "loom.log")

	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.Info("pipeline ready", logging.String("stage", "text"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "pipeline ready") {
		t.Fatalf("expected message in log output, got %q", content)
	}
	if !strings.Contains(content, "stage=text") {
		t.Fatalf("expected stage attr in log output, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestComponentPrefixInConsoleOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.log")

	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	logging.NewComponentLogger(logger, "workflow").Info("started")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "workflow: started") {
		t.Fatalf("expected component prefix, got %q", string(data))
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithJobID(context.Background(), 9)
	ctx = services.WithStage(ctx, "video")

	fields := logging.ContextFields(ctx)
	keys := make(map[string]bool, len(fields))
	for _, attr := range fields {
		keys[attr.Key] = true
	}
	if !keys[logging.FieldJobID] || !keys[logging.FieldStage] {
		t.Fatalf("expected job and stage fields, got %v", keys)
	}

	if logger := logging.WithContext(context.Background(), nil); logger == nil {
		t.Fatal("expected non-nil logger for nil input")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled at all levels")
	}
}
