package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"happytube/internal/pipeline"
	"happytube/internal/services"
	"happytube/internal/stage"
	"happytube/internal/testsupport"
)

var day = time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

type stubHandler struct {
	name   string
	result stage.Result
	err    error
	calls  *[]string
}

func (s *stubHandler) Name() string { return s.name }

func (s *stubHandler) Run(context.Context, time.Time) (stage.Result, error) {
	*s.calls = append(*s.calls, s.name)
	return s.result, s.err
}

type recordingNotifier struct {
	completed [][]stage.Result
	failures  []stage.Result
	testErr   error
}

func (r *recordingNotifier) NotifyRunCompleted(_ context.Context, _ time.Time, results []stage.Result) error {
	r.completed = append(r.completed, results)
	return nil
}

func (r *recordingNotifier) NotifyStageFailed(_ context.Context, _ time.Time, result stage.Result) error {
	r.failures = append(r.failures, result)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return r.testErr }

func ok(name string, calls *[]string) *stubHandler {
	return &stubHandler{
		name:   name,
		result: stage.Result{Stage: name, Status: stage.StatusSuccess, Processed: 1},
		calls:  calls,
	}
}

func failing(name string, calls *[]string) *stubHandler {
	err := errors.New(name + " broke")
	return &stubHandler{
		name:   name,
		result: stage.Fail(name, 0, err),
		err:    err,
		calls:  calls,
	}
}

func TestRunExecutesAllStagesInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var calls []string
	notifier := &recordingNotifier{}
	p, err := pipeline.NewWithDependencies(cfg, nil, notifier,
		ok("fetch", &calls), ok("assess", &calls), ok("enhance", &calls), ok("report", &calls))
	if err != nil {
		t.Fatalf("NewWithDependencies: %v", err)
	}

	results, err := p.Run(context.Background(), day)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"fetch", "assess", "enhance", "report"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i, name := range want {
		if calls[i] != name {
			t.Fatalf("call %d = %q, want %q", i, calls[i], name)
		}
	}
	if len(results) != 4 {
		t.Fatalf("results = %d", len(results))
	}
	if len(notifier.completed) != 1 {
		t.Fatalf("expected one run notification, got %d", len(notifier.completed))
	}
	if len(notifier.failures) != 0 {
		t.Fatalf("unexpected failure notifications: %v", notifier.failures)
	}
}

func TestRunContinuesPastFailedStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var calls []string
	notifier := &recordingNotifier{}
	p, err := pipeline.NewWithDependencies(cfg, nil, notifier,
		ok("fetch", &calls), failing("assess", &calls), ok("enhance", &calls), ok("report", &calls))
	if err != nil {
		t.Fatalf("NewWithDependencies: %v", err)
	}

	results, err := p.Run(context.Background(), day)
	if err != nil {
		t.Fatalf("Run should not surface stage errors, got %v", err)
	}
	if len(calls) != 4 {
		t.Fatalf("later stages must still run, calls = %v", calls)
	}
	if !results[1].Failed() {
		t.Fatalf("expected assess result failed, got %+v", results[1])
	}
	if len(notifier.failures) != 1 || notifier.failures[0].Stage != "assess" {
		t.Fatalf("failure notifications = %v", notifier.failures)
	}
	if len(notifier.completed) != 1 {
		t.Fatalf("run notification still expected, got %d", len(notifier.completed))
	}
}

func TestRunFoldsBareErrorIntoFailedResult(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var calls []string
	bare := &stubHandler{name: "assess", err: errors.New("panic-adjacent"), calls: &calls}
	p, err := pipeline.NewWithDependencies(cfg, nil, &recordingNotifier{}, bare)
	if err != nil {
		t.Fatalf("NewWithDependencies: %v", err)
	}
	results, err := p.Run(context.Background(), day)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || !results[0].Failed() || results[0].Stage != "assess" {
		t.Fatalf("expected synthesized failed result, got %+v", results)
	}
}

func TestRunRefusesConcurrentExecution(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var calls []string
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := &stubHandler{name: "fetch", result: stage.Result{Stage: "fetch", Status: stage.StatusSuccess}, calls: &calls}

	first, err := pipeline.NewWithDependencies(cfg, nil, &recordingNotifier{}, &gateHandler{inner: blocking, started: started, release: release})
	if err != nil {
		t.Fatalf("NewWithDependencies: %v", err)
	}
	second, err := pipeline.NewWithDependencies(cfg, nil, &recordingNotifier{}, ok("fetch", &calls))
	if err != nil {
		t.Fatalf("NewWithDependencies: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := first.Run(context.Background(), day)
		done <- err
	}()
	<-started

	if _, err := second.Run(context.Background(), day); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient while locked, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Run: %v", err)
	}
}

type gateHandler struct {
	inner   stage.Handler
	started chan struct{}
	release chan struct{}
}

func (g *gateHandler) Name() string { return g.inner.Name() }

func (g *gateHandler) Run(ctx context.Context, day time.Time) (stage.Result, error) {
	close(g.started)
	<-g.release
	return g.inner.Run(ctx, day)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err := pipeline.NewWithDependencies(cfg, nil, &recordingNotifier{}, ok("fetch", &calls))
	if err != nil {
		t.Fatalf("NewWithDependencies: %v", err)
	}
	if _, err := p.Run(ctx, day); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if len(calls) != 0 {
		t.Fatalf("no stage should run, calls = %v", calls)
	}
}

func TestNewWithDependenciesValidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := pipeline.NewWithDependencies(nil, nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for nil config, got %v", err)
	}
	if _, err := pipeline.NewWithDependencies(cfg, nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for no handlers, got %v", err)
	}
}
