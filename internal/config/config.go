package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"happytube/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagesDir    string `toml:"stages_dir"`
	AnalyticsDir string `toml:"analytics_dir"`
	LogDir       string `toml:"log_dir"`
}

// Search describes one named YouTube search profile.
type Search struct {
	Region            string `toml:"region"`
	CategoryID        string `toml:"category_id"`
	Order             string `toml:"order"`
	SafeSearch        string `toml:"safe_search"`
	Duration          string `toml:"duration"`
	RelevanceLanguage string `toml:"relevance_language"`
	MaxResults        int    `toml:"max_results"`
}

// YouTube contains configuration for the YouTube Data API.
type YouTube struct {
	APIKey        string            `toml:"api_key"`
	BaseURL       string            `toml:"base_url"`
	DefaultSearch string            `toml:"default_search"`
	Searches      map[string]Search `toml:"searches"`
}

// LLM contains the shared LLM connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Prompt describes one named, versioned prompt template.
type Prompt struct {
	Version   int    `toml:"version"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
	Template  string `toml:"template"`
}

// Processing contains the pipeline tuning parameters.
type Processing struct {
	HappinessThreshold int    `toml:"happiness_threshold"`
	BatchSize          int    `toml:"batch_size"`
	DaysBack           int    `toml:"days_back"`
	MaxVideos          int    `toml:"max_videos"`
	AssessPrompt       string `toml:"assess_prompt"`
	EnhancePrompt      string `toml:"enhance_prompt"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for happytube.
type Config struct {
	Paths         Paths             `toml:"paths"`
	YouTube       YouTube           `toml:"youtube"`
	LLM           LLM               `toml:"llm"`
	Prompts       map[string]Prompt `toml:"prompts"`
	Processing    Processing        `toml:"processing"`
	Notifications Notifications     `toml:"notifications"`
	Logging       Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/happytube/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("happytube.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagesDir, c.Paths.AnalyticsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SearchProfile looks up a named search profile. An empty name selects the
// configured default profile.
func (c *Config) SearchProfile(name string) (Search, error) {
	if strings.TrimSpace(name) == "" {
		name = c.YouTube.DefaultSearch
	}
	profile, ok := c.YouTube.Searches[name]
	if !ok {
		return Search{}, services.Wrap(services.ErrConfiguration, "", "search profile lookup", name, nil)
	}
	return profile, nil
}

// PromptTemplate looks up a named prompt template.
func (c *Config) PromptTemplate(name string) (Prompt, error) {
	prompt, ok := c.Prompts[name]
	if !ok {
		return Prompt{}, services.Wrap(services.ErrConfiguration, "", "prompt lookup", name, nil)
	}
	return prompt, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
