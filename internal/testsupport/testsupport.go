package testsupport

import (
	"path/filepath"
	"testing"

	"happytube/internal/config"
)

// NewConfig returns a validated configuration rooted in per-test temp
// directories.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagesDir = filepath.Join(base, "stages")
	cfg.Paths.AnalyticsDir = filepath.Join(base, "analytics")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.YouTube.APIKey = "test-yt-key"
	cfg.LLM.APIKey = "test-llm-key"
	cfg.Logging.Format = "json"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return &cfg
}
