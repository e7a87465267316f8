package bucket_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"happytube/internal/bucket"
	"happytube/internal/record"
	"happytube/internal/services"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(bucket.DateLayout, value)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	return parsed
}

func newRecord(key, title string) record.Record {
	meta := record.Metadata{}
	meta.Set("video_id", key)
	meta.Set("title", title)
	return record.Record{Key: key, Meta: meta, Body: "# " + title}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := bucket.NewStore(t.TempDir(), "fetch")
	target := day(t, "2026-08-30")

	if err := store.Save(target, newRecord("abc123", "Sunrise timelapse")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, err := store.Load(target, "abc123")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Key != "abc123" {
		t.Fatalf("unexpected key: %q", rec.Key)
	}
	if got := rec.Meta.GetString("title"); got != "Sunrise timelapse" {
		t.Fatalf("unexpected title: %q", got)
	}
	if rec.Body != "# Sunrise timelapse" {
		t.Fatalf("unexpected body: %q", rec.Body)
	}
}

func TestSaveOverwritesWholesale(t *testing.T) {
	store := bucket.NewStore(t.TempDir(), "fetch")
	target := day(t, "2026-08-30")

	first := newRecord("abc", "First")
	first.Meta.Set("extra", "will vanish")
	if err := store.Save(target, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if err := store.Save(target, newRecord("abc", "Second")); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	rec, err := store.Load(target, "abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Meta.Has("extra") {
		t.Fatal("rerun should overwrite, not merge")
	}
	if got := rec.Meta.GetString("title"); got != "Second" {
		t.Fatalf("unexpected title after overwrite: %q", got)
	}
}

func TestLoadMissingRecord(t *testing.T) {
	store := bucket.NewStore(t.TempDir(), "fetch")
	_, err := store.Load(day(t, "2026-08-30"), "nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestKeysMissingBucketIsEmpty(t *testing.T) {
	store := bucket.NewStore(t.TempDir(), "assess")
	keys, err := store.Keys(day(t, "2026-08-30"))
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestKeysIgnoresForeignFiles(t *testing.T) {
	root := t.TempDir()
	store := bucket.NewStore(root, "fetch")
	target := day(t, "2026-08-30")
	if err := store.Save(target, newRecord("abc", "T")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dir := store.Dir(target)
	for _, name := range []string{"notes.txt", "video_.partial", ".video_tmp.md.12345"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write foreign file: %v", err)
		}
	}

	keys, err := store.Keys(target)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "abc" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestLoadAllSkipsMalformedRecords(t *testing.T) {
	root := t.TempDir()
	store := bucket.NewStore(root, "fetch")
	target := day(t, "2026-08-30")

	for i := 0; i < 9; i++ {
		key := string(rune('a' + i))
		if err := store.Save(target, newRecord(key, "Title "+key)); err != nil {
			t.Fatalf("Save %s: %v", key, err)
		}
	}
	corrupt := filepath.Join(store.Dir(target), "video_zzz.md")
	if err := os.WriteFile(corrupt, []byte("---\n[broken yaml\n---\n\nbody"), 0o644); err != nil {
		t.Fatalf("write corrupt record: %v", err)
	}

	records, skipped, err := store.LoadAll(target)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 9 {
		t.Fatalf("expected 9 records, got %d", len(records))
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped record, got %d", skipped)
	}
}

func TestSaveEmptyKeyRejected(t *testing.T) {
	store := bucket.NewStore(t.TempDir(), "fetch")
	err := store.Save(day(t, "2026-08-30"), record.Record{Key: "  "})
	if !errors.Is(err, services.ErrItemProcessing) {
		t.Fatalf("expected ErrItemProcessing, got %v", err)
	}
}

func TestEnsureIdempotent(t *testing.T) {
	store := bucket.NewStore(t.TempDir(), "report")
	target := day(t, "2026-08-30")
	first, err := store.Ensure(target)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	second, err := store.Ensure(target)
	if err != nil {
		t.Fatalf("Ensure again: %v", err)
	}
	if first != second {
		t.Fatalf("Ensure not stable: %q vs %q", first, second)
	}
	if !store.Exists(target) {
		t.Fatal("bucket should exist after Ensure")
	}
}
