package report_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"happytube/internal/analytics"
	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/record"
	"happytube/internal/report"
	"happytube/internal/stage"
	"happytube/internal/testsupport"
)

var day = time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

type fakeExporter struct {
	stages []string
	days   []int
	fail   map[string]error
}

func (f *fakeExporter) Export(_ context.Context, stageName string, daysBack int, _ time.Time) (analytics.Snapshot, error) {
	f.stages = append(f.stages, stageName)
	f.days = append(f.days, daysBack)
	if err := f.fail[stageName]; err != nil {
		return analytics.Snapshot{}, err
	}
	return analytics.Snapshot{Rows: 1}, nil
}

func seedEnhanced(t *testing.T, cfg *config.Config, key, title string, score int) {
	t.Helper()
	store := bucket.NewStore(cfg.Paths.StagesDir, "enhance")
	meta := record.Metadata{}
	meta.Set(record.FieldVideoID, key)
	meta.Set(record.FieldTitle, title)
	meta.Set(record.FieldChannel, "Chan")
	meta.Set(record.FieldHappinessScore, score)
	meta.Set(record.FieldHappinessReasoning, "joyful")
	meta.Set(record.FieldLanguage, "en")
	if err := store.Save(day, record.Record{Key: key, Meta: meta, Body: "# " + title + "\n\nbetter text"}); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

func TestRunWritesReportSortedByHappiness(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedEnhanced(t, cfg, "low", "Calm walk", 3)
	seedEnhanced(t, cfg, "high", "Puppy party", 5)

	exporter := &fakeExporter{}
	reporter := report.NewReporterWithDependencies(cfg, nil, exporter)
	result, err := reporter.Run(context.Background(), day)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != stage.StatusSuccess || result.Processed != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	raw, err := os.ReadFile(reporter.Path(day))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	html := string(raw)
	if !strings.Contains(html, "Happy videos for 2026-08-30") {
		t.Fatalf("missing heading in:\n%s", html)
	}
	puppy := strings.Index(html, "Puppy party")
	calm := strings.Index(html, "Calm walk")
	if puppy < 0 || calm < 0 || puppy > calm {
		t.Fatalf("expected happiest first (puppy=%d calm=%d)", puppy, calm)
	}
	if !strings.Contains(html, "watch?v=high") {
		t.Fatalf("missing video link in:\n%s", html)
	}
	if !strings.Contains(html, "better text") {
		t.Fatalf("missing enhanced description in:\n%s", html)
	}
}

func TestRunTriggersSnapshotExports(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Processing.DaysBack = 9
	seedEnhanced(t, cfg, "a", "A", 4)

	exporter := &fakeExporter{}
	reporter := report.NewReporterWithDependencies(cfg, nil, exporter)
	if _, err := reporter.Run(context.Background(), day); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"fetch", "assess", "enhance"}
	if len(exporter.stages) != len(want) {
		t.Fatalf("exported stages = %v", exporter.stages)
	}
	for i, name := range want {
		if exporter.stages[i] != name {
			t.Fatalf("export %d = %q, want %q", i, exporter.stages[i], name)
		}
		if exporter.days[i] != 9 {
			t.Fatalf("export %d window = %d, want 9", i, exporter.days[i])
		}
	}
}

func TestRunExportFailureIsNotFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedEnhanced(t, cfg, "a", "A", 4)

	exporter := &fakeExporter{fail: map[string]error{"assess": errors.New("disk full")}}
	reporter := report.NewReporterWithDependencies(cfg, nil, exporter)
	result, err := reporter.Run(context.Background(), day)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != stage.StatusSuccess {
		t.Fatalf("status = %s", result.Status)
	}
	if result.Errored != 1 {
		t.Fatalf("errored = %d, want 1", result.Errored)
	}
}

func TestRunEmptyDayIsNoInputButStillExports(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exporter := &fakeExporter{}
	reporter := report.NewReporterWithDependencies(cfg, nil, exporter)
	result, err := reporter.Run(context.Background(), day)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != stage.StatusNoInput {
		t.Fatalf("status = %s", result.Status)
	}
	if len(exporter.stages) != 3 {
		t.Fatalf("exports should still run, got %v", exporter.stages)
	}
	if _, err := os.Stat(reporter.Path(day)); !os.IsNotExist(err) {
		t.Fatalf("no report file expected, stat err = %v", err)
	}
}
