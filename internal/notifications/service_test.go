package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"happytube/internal/notifications"
	"happytube/internal/stage"
)

func TestNoopWhenUnconfigured(t *testing.T) {
	svc := notifications.NewService("", time.Second)
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestNotifyRunCompletedPostsSummary(t *testing.T) {
	var gotTitle, gotBody, gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	svc := notifications.NewService(server.URL, time.Second)
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	results := []stage.Result{
		{Stage: "fetch", Status: stage.StatusSuccess, Processed: 12},
		{Stage: "assess", Status: stage.StatusFailed, Detail: "all batches failed"},
	}
	if err := svc.NotifyRunCompleted(context.Background(), day, results); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if !strings.Contains(gotBody, "2026-08-30") || !strings.Contains(gotBody, "fetch: success") {
		t.Fatalf("unexpected body: %q", gotBody)
	}
	if !strings.Contains(gotTitle, "Failures") || gotPriority != "high" {
		t.Fatalf("failed run should escalate: title=%q priority=%q", gotTitle, gotPriority)
	}
}

func TestSendSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := notifications.NewService(server.URL, time.Second)
	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected 502 error, got %v", err)
	}
}
