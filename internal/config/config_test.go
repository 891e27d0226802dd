package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loom/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[llm]
api_key = "test-key"

[voice]
base_url = "http://localhost:8080/synthesize"

[video]
base_url = "http://localhost:8081/render"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.LLM.Model == "" {
		t.Fatal("expected default model")
	}
	if cfg.LLM.StructureTimeout != 60 {
		t.Fatalf("structure timeout = %d, want 60", cfg.LLM.StructureTimeout)
	}
	if cfg.Workflow.QueuePollInterval != 5 {
		t.Fatalf("poll interval = %d, want 5", cfg.Workflow.QueuePollInterval)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not absolute: %q", cfg.Paths.DataDir)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	path := writeConfig(t, `
[voice]
base_url = "http://localhost:8080"

[video]
base_url = "http://localhost:8081"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected llm.api_key error, got %v", err)
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	path := writeConfig(t, `
[llm]
api_key = "k"

[voice]
base_url = "http://localhost:8080"

[video]
base_url = "http://localhost:8081"

[logging]
format = "yaml"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestValidateVoiceAndVideoEndpoints(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "k"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "voice.base_url") {
		t.Fatalf("expected voice.base_url error, got %v", err)
	}
	cfg.Voice.BaseURL = "http://localhost:8080"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "video.base_url") {
		t.Fatalf("expected video.base_url error, got %v", err)
	}
	cfg.Video.BaseURL = "http://localhost:8081"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[llm]") {
		t.Fatal("expected [llm] section in sample config")
	}
}

func TestSocketAndDatabasePaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/loom-test"
	if got := cfg.SocketPath(); got != "/tmp/loom-test/loomd.sock" {
		t.Fatalf("socket path = %q", got)
	}
	if got := cfg.DatabasePath(); got != "/tmp/loom-test/pipeline.db" {
		t.Fatalf("database path = %q", got)
	}
}
