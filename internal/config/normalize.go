package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeLLM()
	c.normalizeProcessing()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagesDir) == "" {
		c.Paths.StagesDir = defaultStagesDir
	}
	if c.Paths.StagesDir, err = expandPath(c.Paths.StagesDir); err != nil {
		return fmt.Errorf("paths.stages_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AnalyticsDir) == "" {
		c.Paths.AnalyticsDir = defaultAnalyticsDir
	}
	if c.Paths.AnalyticsDir, err = expandPath(c.Paths.AnalyticsDir); err != nil {
		return fmt.Errorf("paths.analytics_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	c.YouTube.APIKey = strings.TrimSpace(c.YouTube.APIKey)
	if c.YouTube.APIKey == "" {
		if value, ok := os.LookupEnv("YTKEY"); ok {
			c.YouTube.APIKey = strings.TrimSpace(value)
		}
	}
	c.YouTube.BaseURL = strings.TrimSpace(strings.TrimSuffix(c.YouTube.BaseURL, "/"))
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = defaultYouTubeBaseURL
	}
	c.YouTube.DefaultSearch = strings.TrimSpace(c.YouTube.DefaultSearch)
	if c.YouTube.DefaultSearch == "" {
		c.YouTube.DefaultSearch = defaultSearchName
	}
	if len(c.YouTube.Searches) == 0 {
		c.YouTube.Searches = Default().YouTube.Searches
	}
	for name, profile := range c.YouTube.Searches {
		if profile.MaxResults <= 0 {
			profile.MaxResults = 50
		}
		c.YouTube.Searches[name] = profile
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeProcessing() {
	if c.Processing.HappinessThreshold == 0 {
		c.Processing.HappinessThreshold = defaultHappinessThreshold
	}
	if c.Processing.BatchSize <= 0 {
		c.Processing.BatchSize = defaultBatchSize
	}
	if c.Processing.DaysBack <= 0 {
		c.Processing.DaysBack = defaultDaysBack
	}
	if c.Processing.MaxVideos <= 0 {
		c.Processing.MaxVideos = defaultMaxVideos
	}
	c.Processing.AssessPrompt = strings.TrimSpace(c.Processing.AssessPrompt)
	if c.Processing.AssessPrompt == "" {
		c.Processing.AssessPrompt = defaultAssessPrompt
	}
	c.Processing.EnhancePrompt = strings.TrimSpace(c.Processing.EnhancePrompt)
	if c.Processing.EnhancePrompt == "" {
		c.Processing.EnhancePrompt = defaultEnhancePrompt
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json":
	default:
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			c.Logging.Format = "console"
		} else {
			c.Logging.Format = "json"
		}
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
