package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateVoice(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/loom/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Edit %s (create with 'loom config init')", defaultPath)
	}
	if c.LLM.StructureTimeout <= 0 {
		return errors.New("llm.structure_timeout must be positive")
	}
	if c.LLM.SegmentTimeout <= 0 {
		return errors.New("llm.segment_timeout must be positive")
	}
	return nil
}

func (c *Config) validateVoice() error {
	if strings.TrimSpace(c.Voice.BaseURL) == "" {
		return errors.New("voice.base_url must be set")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if strings.TrimSpace(c.Video.BaseURL) == "" {
		return errors.New("video.base_url must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
