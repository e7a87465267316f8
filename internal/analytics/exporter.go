package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/logging"
	"happytube/internal/record"
	"happytube/internal/services"
)

const component = "analytics"

// Snapshot summarizes one export.
type Snapshot struct {
	Path    string
	Rows    int
	Columns []string
	Skipped int
}

// Exporter writes trailing-window snapshots of a stage's records into
// standalone SQLite files.
type Exporter struct {
	stagesRoot   string
	analyticsDir string
	logger       *slog.Logger
}

// NewExporter constructs an exporter from the repository configuration.
func NewExporter(cfg *config.Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{
		stagesRoot:   cfg.Paths.StagesDir,
		analyticsDir: cfg.Paths.AnalyticsDir,
		logger:       logger.With(logging.String(logging.FieldComponent, component)),
	}
}

type row struct {
	date string
	key  string
	meta record.Metadata
}

// Export scans the inclusive window [asOf-(daysBack-1), asOf] of the named
// stage's buckets and writes one snapshot database. Columns are the sorted
// union of every metadata field seen in the window; absent fields are NULL.
// Rows are ordered by (date, key) so identical inputs produce identical
// snapshots. Malformed records are counted and skipped.
func (e *Exporter) Export(ctx context.Context, stageName string, daysBack int, asOf time.Time) (Snapshot, error) {
	if daysBack <= 0 {
		return Snapshot{}, services.Wrap(services.ErrConfiguration, component, "export", "days_back must be positive", nil)
	}
	stageName = strings.TrimSpace(stageName)
	if stageName == "" {
		return Snapshot{}, services.Wrap(services.ErrConfiguration, component, "export", "stage name required", nil)
	}
	logger := logging.WithContext(ctx, e.logger)

	store := bucket.NewStore(e.stagesRoot, stageName)
	columnSet := make(map[string]struct{})
	var rows []row
	skipped := 0

	for offset := daysBack - 1; offset >= 0; offset-- {
		day := asOf.AddDate(0, 0, -offset)
		records, daySkipped, err := store.LoadAll(day)
		if err != nil {
			return Snapshot{}, err
		}
		skipped += daySkipped
		for _, rec := range records {
			for _, key := range rec.Meta.Keys() {
				columnSet[key] = struct{}{}
			}
			rows = append(rows, row{date: day.Format(bucket.DateLayout), key: rec.Key, meta: rec.Meta})
		}
	}

	columns := make([]string, 0, len(columnSet))
	for column := range columnSet {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].date != rows[j].date {
			return rows[i].date < rows[j].date
		}
		return rows[i].key < rows[j].key
	})

	path := e.snapshotPath(stageName, daysBack, asOf)
	if err := e.writeSnapshot(ctx, path, columns, rows); err != nil {
		return Snapshot{}, services.Wrap(services.ErrStageFailure, component, "export", path, err)
	}

	snapshot := Snapshot{Path: path, Rows: len(rows), Columns: append([]string{"date", "key"}, columns...), Skipped: skipped}
	logger.Info("snapshot written",
		logging.String("stage", stageName),
		logging.String("path", path),
		logging.Int("rows", snapshot.Rows),
		logging.Int("skipped", skipped),
	)
	return snapshot, nil
}

func (e *Exporter) snapshotPath(stageName string, daysBack int, asOf time.Time) string {
	name := fmt.Sprintf("%s_last_%d_days.db", asOf.Format(bucket.DateLayout), daysBack)
	return filepath.Join(e.analyticsDir, stageName, name)
}

func (e *Exporter) writeSnapshot(ctx context.Context, path string, columns []string, rows []row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// Re-exports replace the snapshot wholesale.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=OFF"); err != nil {
		return fmt.Errorf("apply pragma: %w", err)
	}

	ddl := make([]string, 0, len(columns)+2)
	ddl = append(ddl, `"date" TEXT NOT NULL`, `"key" TEXT NOT NULL`)
	for _, column := range columns {
		ddl = append(ddl, quoteIdent(column))
	}
	createStmt := "CREATE TABLE records (" + strings.Join(ddl, ", ") + ")"
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimRight(strings.Repeat("?, ", len(columns)+2), ", ")
	insertStmt, err := tx.PrepareContext(ctx, "INSERT INTO records VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insertStmt.Close()

	for _, r := range rows {
		values := make([]any, 0, len(columns)+2)
		values = append(values, r.date, r.key)
		for _, column := range columns {
			value, ok := r.meta.Get(column)
			if !ok {
				values = append(values, nil)
				continue
			}
			values = append(values, sqlValue(value))
		}
		if _, err := insertStmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("insert row %s/%s: %w", r.date, r.key, err)
		}
	}
	return tx.Commit()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlValue(value any) any {
	switch v := value.(type) {
	case nil, string, bool, int64, float64, []byte:
		return v
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	default:
		return fmt.Sprint(v)
	}
}
