package config

const (
	defaultDataDir = "~/.local/share/loom"
	defaultLogDir  = "~/.local/share/loom/logs"

	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMReferer          = "https://github.com/loom-pipeline/loom"
	defaultLLMTitle            = "Loom Script Generator"
	defaultStructureTimeout    = 60
	defaultSegmentTimeout      = 200
	defaultConcurrentSegments  = 4
	defaultVoiceTimeout        = 300
	defaultVideoTimeout        = 900
	defaultQueuePollInterval   = 5
	defaultErrorRetryInterval  = 10
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		LLM: LLM{
			BaseURL:               defaultLLMBaseURL,
			Model:                 defaultLLMModel,
			Referer:               defaultLLMReferer,
			Title:                 defaultLLMTitle,
			StructureTimeout:      defaultStructureTimeout,
			SegmentTimeout:        defaultSegmentTimeout,
			MaxConcurrentSegments: defaultConcurrentSegments,
		},
		Voice: Voice{
			RequestTimeout: defaultVoiceTimeout,
		},
		Video: Video{
			RequestTimeout: defaultVideoTimeout,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			StageErrors:    true,
			Rendered:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
