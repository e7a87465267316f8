package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"happytube/internal/services"
)

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger = NewComponentLogger(logger, "fetch")
	logger.Info("stage started", String("date", "2026-08-30"), Int("max_videos", 50))

	line := buf.String()
	if !strings.Contains(line, "INFO fetch: stage started") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "date=2026-08-30") || !strings.Contains(line, "max_videos=50") {
		t.Fatalf("missing attrs in console line: %q", line)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("record saved", String("key", "abc123"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log line: %v", err)
	}
	if payload["level"] != "debug" || payload["msg"] != "record saved" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["key"] != "abc123" {
		t.Fatalf("missing attr: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithStage(context.Background(), "assess")
	ctx = services.WithDate(ctx, "2026-08-30")
	ctx = services.WithRunID(ctx, "run-1")

	WithContext(ctx, logger).Info("working")
	line := buf.String()
	for _, want := range []string{"stage=assess", "date=2026-08-30", "run_id=run-1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}

func TestOpenLogFileCreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	file, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	logger, err := New(Options{Format: "json", Writer: file})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("first run")
	if err := file.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening must append, not truncate.
	file, err = OpenLogFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	logger, err = New(Options{Format: "json", Writer: file})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("second run")
	if err := file.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"first run", "second run"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("missing %q in %q", want, data)
		}
	}
}
