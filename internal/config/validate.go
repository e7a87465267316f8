package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validatePrompts(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if _, ok := c.YouTube.Searches[c.YouTube.DefaultSearch]; !ok {
		return fmt.Errorf("youtube.default_search %q has no matching [youtube.searches.%s] section", c.YouTube.DefaultSearch, c.YouTube.DefaultSearch)
	}
	for name, profile := range c.YouTube.Searches {
		if profile.MaxResults <= 0 || profile.MaxResults > 50 {
			return fmt.Errorf("youtube.searches.%s.max_results must be between 1 and 50", name)
		}
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePrompts() error {
	for _, name := range []string{c.Processing.AssessPrompt, c.Processing.EnhancePrompt} {
		prompt, ok := c.Prompts[name]
		if !ok {
			return fmt.Errorf("prompt %q referenced by [processing] has no [prompts.%s] section", name, name)
		}
		if strings.TrimSpace(prompt.Template) == "" {
			return fmt.Errorf("prompts.%s.template must be set", name)
		}
		if prompt.Version <= 0 {
			return fmt.Errorf("prompts.%s.version must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.HappinessThreshold < 1 || c.Processing.HappinessThreshold > 5 {
		return errors.New("processing.happiness_threshold must be between 1 and 5")
	}
	if err := ensurePositiveMap(map[string]int{
		"processing.batch_size": c.Processing.BatchSize,
		"processing.days_back":  c.Processing.DaysBack,
		"processing.max_videos": c.Processing.MaxVideos,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
