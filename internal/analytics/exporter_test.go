package analytics_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"happytube/internal/analytics"
	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/record"
	"happytube/internal/services"
	"happytube/internal/testsupport"
)

var asOf = time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, cfg *config.Config, day time.Time, key string, fields map[string]any) {
	t.Helper()
	store := bucket.NewStore(cfg.Paths.StagesDir, "assess")
	meta := record.Metadata{}
	meta.Set(record.FieldVideoID, key)
	for name, value := range fields {
		meta.Set(name, value)
	}
	if err := store.Save(day, record.Record{Key: key, Meta: meta, Body: "# t"}); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

func queryAll(t *testing.T, path, stmt string) [][]any {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer db.Close()
	rows, err := db.Query(stmt)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, values)
	}
	return out
}

func TestExportWindowCorrectness(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// D-6 is inside a 7-day window ending at D; D-8 is not.
	seed(t, cfg, asOf, "today", map[string]any{"happiness_score": 5})
	seed(t, cfg, asOf.AddDate(0, 0, -6), "edge", map[string]any{"happiness_score": 4})
	seed(t, cfg, asOf.AddDate(0, 0, -8), "stale", map[string]any{"happiness_score": 1})

	exporter := analytics.NewExporter(cfg, nil)
	snapshot, err := exporter.Export(context.Background(), "assess", 7, asOf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if snapshot.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", snapshot.Rows)
	}

	rows := queryAll(t, snapshot.Path, `SELECT "key" FROM records ORDER BY "date", "key"`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows in db, got %d", len(rows))
	}
	if got := rows[0][0].(string); got != "edge" {
		t.Fatalf("first row key = %q", got)
	}
	if got := rows[1][0].(string); got != "today" {
		t.Fatalf("second row key = %q", got)
	}
}

func TestExportColumnUnionWithNulls(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seed(t, cfg, asOf, "a", map[string]any{"happiness_score": 5, "language": "en"})
	seed(t, cfg, asOf.AddDate(0, 0, -1), "b", map[string]any{"happiness_score": 2})

	exporter := analytics.NewExporter(cfg, nil)
	snapshot, err := exporter.Export(context.Background(), "assess", 7, asOf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	rows := queryAll(t, snapshot.Path, `SELECT "key", "happiness_score", "language" FROM records ORDER BY "date", "key"`)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// b exported first (earlier date); it never had a language field.
	if rows[0][2] != nil {
		t.Fatalf("missing field should be NULL, got %#v", rows[0][2])
	}
	if rows[1][2] != "en" {
		t.Fatalf("language = %#v", rows[1][2])
	}
	if rows[1][1] != int64(5) {
		t.Fatalf("happiness_score = %#v", rows[1][1])
	}
}

func TestExportSkipsMalformedRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seed(t, cfg, asOf, "good", map[string]any{"happiness_score": 3})
	store := bucket.NewStore(cfg.Paths.StagesDir, "assess")
	corrupt := filepath.Join(store.Dir(asOf), "video_bad.md")
	if err := os.WriteFile(corrupt, []byte("---\n[oops\n---\n\nx"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}

	exporter := analytics.NewExporter(cfg, nil)
	snapshot, err := exporter.Export(context.Background(), "assess", 7, asOf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if snapshot.Rows != 1 || snapshot.Skipped != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestExportEmptyWindowWritesEmptySnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exporter := analytics.NewExporter(cfg, nil)
	snapshot, err := exporter.Export(context.Background(), "assess", 7, asOf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if snapshot.Rows != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}
	rows := queryAll(t, snapshot.Path, "SELECT * FROM records")
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestExportRerunOverwrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seed(t, cfg, asOf, "a", map[string]any{"happiness_score": 5})
	exporter := analytics.NewExporter(cfg, nil)
	first, err := exporter.Export(context.Background(), "assess", 7, asOf)
	if err != nil {
		t.Fatalf("first Export: %v", err)
	}
	second, err := exporter.Export(context.Background(), "assess", 7, asOf)
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}
	if first.Path != second.Path {
		t.Fatalf("snapshot path changed: %q vs %q", first.Path, second.Path)
	}
	rows := queryAll(t, second.Path, "SELECT * FROM records")
	if len(rows) != 1 {
		t.Fatalf("rerun must overwrite, got %d rows", len(rows))
	}
}

func TestExportRejectsBadArguments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	exporter := analytics.NewExporter(cfg, nil)
	if _, err := exporter.Export(context.Background(), "assess", 0, asOf); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for days_back=0, got %v", err)
	}
	if _, err := exporter.Export(context.Background(), "", 7, asOf); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for empty stage, got %v", err)
	}
}
