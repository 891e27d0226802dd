package testsupport

import (
	"path/filepath"
	"testing"

	"loom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.LLM.APIKey = "test"
	cfgVal.Voice.APIKey = "test"
	cfgVal.Video.APIKey = "test"

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMBaseURL points the text-generation client at a test server.
func WithLLMBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithVoiceBaseURL points the voice-synthesis client at a test server.
func WithVoiceBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Voice.BaseURL = url
	}
}

// WithVideoBaseURL points the video-render client at a test server.
func WithVideoBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Video.BaseURL = url
	}
}
