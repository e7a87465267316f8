package report

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"happytube/internal/analytics"
	"happytube/internal/assess"
	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/enhance"
	"happytube/internal/fetch"
	"happytube/internal/logging"
	"happytube/internal/record"
	"happytube/internal/services"
	"happytube/internal/stage"
)

// StageName identifies the report stage.
const StageName = "report"

//go:embed report.html.tmpl
var reportTemplate string

// Exporter describes the analytics surface the report stage triggers.
type Exporter interface {
	Export(ctx context.Context, stageName string, daysBack int, asOf time.Time) (analytics.Snapshot, error)
}

// Reporter renders the daily HTML report and refreshes analytics snapshots.
type Reporter struct {
	cfg      *config.Config
	in       *bucket.Store
	exporter Exporter
	logger   *slog.Logger
	now      func() time.Time
	tmpl     *template.Template
}

// NewReporter constructs the report stage handler using default dependencies.
func NewReporter(cfg *config.Config, logger *slog.Logger) *Reporter {
	return NewReporterWithDependencies(cfg, logger, analytics.NewExporter(cfg, logger))
}

// NewReporterWithDependencies allows injecting collaborators (used in tests).
func NewReporterWithDependencies(cfg *config.Config, logger *slog.Logger, exporter Exporter) *Reporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reporter{
		cfg:      cfg,
		in:       bucket.NewStore(cfg.Paths.StagesDir, enhance.StageName),
		exporter: exporter,
		logger:   logger.With(logging.String(logging.FieldComponent, StageName)),
		now:      time.Now,
		tmpl:     template.Must(template.New("report").Parse(reportTemplate)),
	}
}

func (r *Reporter) Name() string {
	return StageName
}

// Path returns the report file location for the given day.
func (r *Reporter) Path(day time.Time) string {
	return filepath.Join(r.cfg.Paths.StagesDir, StageName, day.Format(bucket.DateLayout)+".html")
}

type reportItem struct {
	Rank        int
	VideoID     string
	URL         string
	Title       string
	Channel     string
	Score       int
	Reasoning   string
	Language    string
	Description string
}

type reportData struct {
	Date        string
	GeneratedAt string
	Items       []reportItem
}

// Run renders the enhanced records for the day, happiest first, then
// refreshes the trailing-window analytics snapshots for every upstream
// stage. A failed snapshot export is counted, not fatal.
func (r *Reporter) Run(ctx context.Context, day time.Time) (stage.Result, error) {
	start := r.now()
	ctx = services.WithStage(ctx, StageName)
	logger := logging.WithContext(ctx, r.logger)

	records, skipped, err := r.in.LoadAll(day)
	if err != nil {
		return stage.Fail(StageName, r.now().Sub(start), err), err
	}
	errored := skipped

	rendered := 0
	if len(records) > 0 {
		if err := r.render(day, records); err != nil {
			wrapped := services.Wrap(services.ErrStageFailure, StageName, "render", r.Path(day), err)
			return stage.Fail(StageName, r.now().Sub(start), wrapped), wrapped
		}
		rendered = len(records)
		logger.Info("report written", logging.String("path", r.Path(day)), logging.Int("videos", rendered))
	}

	exported := 0
	for _, upstream := range []string{fetch.StageName, assess.StageName, enhance.StageName} {
		if _, err := r.exporter.Export(ctx, upstream, r.cfg.Processing.DaysBack, day); err != nil {
			errored++
			logger.Warn("snapshot export failed", logging.String("stage", upstream), logging.Error(err))
			continue
		}
		exported++
	}

	result := stage.Result{
		Stage:     StageName,
		Status:    stage.Outcome(rendered),
		Processed: rendered,
		Errored:   errored,
		Detail:    fmt.Sprintf("%d videos reported, %d snapshots", rendered, exported),
		Elapsed:   r.now().Sub(start),
	}
	if rendered == 0 {
		result.Detail = fmt.Sprintf("no enhanced videos, %d snapshots", exported)
	}
	return result, nil
}

func (r *Reporter) render(day time.Time, records []record.Record) error {
	sort.Slice(records, func(i, j int) bool {
		si, _ := records[i].Meta.GetInt(record.FieldHappinessScore)
		sj, _ := records[j].Meta.GetInt(record.FieldHappinessScore)
		if si != sj {
			return si > sj
		}
		return records[i].Key < records[j].Key
	})

	items := make([]reportItem, 0, len(records))
	for i, rec := range records {
		score, _ := rec.Meta.GetInt(record.FieldHappinessScore)
		items = append(items, reportItem{
			Rank:        i + 1,
			VideoID:     rec.Key,
			URL:         "https://www.youtube.com/watch?v=" + rec.Key,
			Title:       rec.Meta.GetString(record.FieldTitle),
			Channel:     rec.Meta.GetString(record.FieldChannel),
			Score:       score,
			Reasoning:   rec.Meta.GetString(record.FieldHappinessReasoning),
			Language:    rec.Meta.GetString(record.FieldLanguage),
			Description: assess.Description(rec),
		})
	}
	data := reportData{
		Date:        day.Format(bucket.DateLayout),
		GeneratedAt: r.now().UTC().Format(time.RFC3339),
		Items:       items,
	}

	path := r.Path(day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := file.Name()
	if err := r.tmpl.Execute(file, data); err != nil {
		file.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
