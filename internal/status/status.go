package status

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"happytube/internal/assess"
	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/enhance"
	"happytube/internal/fetch"
	"happytube/internal/report"
)

var titleCaser = cases.Title(language.English)

// StageStatus summarizes one stage bucket for a processing date.
type StageStatus struct {
	Stage   string
	Label   string
	Present bool
	Records int
}

// Summary describes the pipeline state for a single date.
type Summary struct {
	Date       string
	Stages     []StageStatus
	ReportPath string
	HasReport  bool
}

// Inspect reads bucket counts and report presence for the given day. Buckets
// that do not exist yet report zero records rather than an error.
func Inspect(cfg *config.Config, day time.Time) (Summary, error) {
	summary := Summary{
		Date:       day.Format(bucket.DateLayout),
		ReportPath: filepath.Join(cfg.Paths.StagesDir, report.StageName, day.Format(bucket.DateLayout)+".html"),
	}

	for _, name := range []string{fetch.StageName, assess.StageName, enhance.StageName} {
		store := bucket.NewStore(cfg.Paths.StagesDir, name)
		status := StageStatus{Stage: name, Label: titleCaser.String(name)}
		if store.Exists(day) {
			count, err := store.Count(day)
			if err != nil {
				return Summary{}, err
			}
			status.Present = true
			status.Records = count
		}
		summary.Stages = append(summary.Stages, status)
	}

	if info, err := os.Stat(summary.ReportPath); err == nil && !info.IsDir() {
		summary.HasReport = true
	}
	return summary, nil
}
