package bucket

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"happytube/internal/record"
	"happytube/internal/services"
)

const (
	// DateLayout is the directory name format for daily buckets.
	DateLayout = "2006-01-02"

	recordPrefix = "video_"
	recordSuffix = ".md"
)

// Store manages the dated record buckets for one named stage. Records live at
// <root>/<stage>/<YYYY-MM-DD>/video_<key>.md and are owned exclusively by the
// producing stage; downstream stages read them through another stage's Store.
type Store struct {
	root  string
	stage string
}

// NewStore constructs a store rooted at root for the named stage.
func NewStore(root, stage string) *Store {
	return &Store{root: root, stage: stage}
}

// Stage returns the stage name this store serves.
func (s *Store) Stage() string {
	return s.stage
}

// Dir returns the bucket directory for the given day without creating it.
func (s *Store) Dir(day time.Time) string {
	return filepath.Join(s.root, s.stage, day.Format(DateLayout))
}

// Ensure creates the bucket directory for the given day if absent.
func (s *Store) Ensure(day time.Time) (string, error) {
	dir := s.Dir(day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrStageFailure, s.stage, "ensure bucket", dir, err)
	}
	return dir, nil
}

// Exists reports whether the bucket directory for the given day is present.
func (s *Store) Exists(day time.Time) bool {
	info, err := os.Stat(s.Dir(day))
	return err == nil && info.IsDir()
}

// Keys enumerates the record keys present for the given day. A missing bucket
// yields an empty set. The result is sorted for stable logs; callers must not
// depend on any particular order for correctness.
func (s *Store) Keys(day time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(day))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrStageFailure, s.stage, "list bucket", s.Dir(day), err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, recordPrefix), recordSuffix))
	}
	sort.Strings(keys)
	return keys, nil
}

// Count returns the number of records present for the given day.
func (s *Store) Count(day time.Time) (int, error) {
	keys, err := s.Keys(day)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Load reads and decodes one record. A missing file yields ErrNotFound; an
// unparseable frontmatter block yields ErrMalformedRecord.
func (s *Store) Load(day time.Time, key string) (record.Record, error) {
	path := s.recordPath(day, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record.Record{}, services.Wrap(services.ErrNotFound, s.stage, "load record", key, err)
		}
		return record.Record{}, services.Wrap(services.ErrStageFailure, s.stage, "load record", key, err)
	}
	meta, body, err := record.Decode(data)
	if err != nil {
		return record.Record{}, err
	}
	return record.Record{Key: key, Meta: meta, Body: body}, nil
}

// Save writes one record, overwriting any previous version wholesale. The
// write goes to a temporary file in the bucket directory followed by a rename
// so an interrupted run never leaves a truncated record behind.
func (s *Store) Save(day time.Time, rec record.Record) error {
	if strings.TrimSpace(rec.Key) == "" {
		return services.Wrap(services.ErrItemProcessing, s.stage, "save record", "empty key", nil)
	}
	if _, err := s.Ensure(day); err != nil {
		return err
	}
	data, err := record.Encode(rec.Meta, rec.Body)
	if err != nil {
		return err
	}

	path := s.recordPath(day, rec.Key)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+recordPrefix+rec.Key+".*")
	if err != nil {
		return services.Wrap(services.ErrStageFailure, s.stage, "save record", rec.Key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return services.Wrap(services.ErrStageFailure, s.stage, "save record", rec.Key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return services.Wrap(services.ErrStageFailure, s.stage, "save record", rec.Key, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return services.Wrap(services.ErrStageFailure, s.stage, "save record", rec.Key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return services.Wrap(services.ErrStageFailure, s.stage, "save record", rec.Key, err)
	}
	return nil
}

// LoadAll loads every readable record for the given day. Malformed records
// are skipped and counted, not fatal. A missing bucket yields an empty slice.
func (s *Store) LoadAll(day time.Time) ([]record.Record, int, error) {
	keys, err := s.Keys(day)
	if err != nil {
		return nil, 0, err
	}
	records := make([]record.Record, 0, len(keys))
	skipped := 0
	for _, key := range keys {
		rec, err := s.Load(day, key)
		if err != nil {
			if services.IsItemLevel(err) {
				skipped++
				continue
			}
			return nil, skipped, err
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func (s *Store) recordPath(day time.Time, key string) string {
	return filepath.Join(s.Dir(day), fmt.Sprintf("%s%s%s", recordPrefix, key, recordSuffix))
}
