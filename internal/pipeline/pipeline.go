package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"happytube/internal/assess"
	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/enhance"
	"happytube/internal/fetch"
	"happytube/internal/logging"
	"happytube/internal/notifications"
	"happytube/internal/report"
	"happytube/internal/services"
	"happytube/internal/stage"
)

const lockFileName = ".pipeline.lock"

// Pipeline runs the daily stages in order and enforces single-run execution
// per stages root via a file lock.
type Pipeline struct {
	cfg      *config.Config
	handlers []stage.Handler
	notifier notifications.Service
	logger   *slog.Logger
	lockPath string
}

// New constructs the full fetch, assess, enhance, report pipeline.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	handlers := []stage.Handler{
		fetch.NewFetcher(cfg, logger),
		assess.NewAssessor(cfg, logger),
		enhance.NewEnhancer(cfg, logger),
		report.NewReporter(cfg, logger),
	}
	notifier := notifications.NewService(cfg.Notifications.NtfyTopic, time.Duration(cfg.Notifications.RequestTimeout)*time.Second)
	return NewWithDependencies(cfg, logger, notifier, handlers...)
}

// NewWithDependencies allows injecting handlers and the notifier (used in tests).
func NewWithDependencies(cfg *config.Config, logger *slog.Logger, notifier notifications.Service, handlers ...stage.Handler) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "config is required", nil)
	}
	if len(handlers) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "at least one stage handler is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService("", 0)
	}
	return &Pipeline{
		cfg:      cfg,
		handlers: handlers,
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
		lockPath: filepath.Join(cfg.Paths.StagesDir, lockFileName),
	}, nil
}

// LockPath reports where the run lock lives.
func (p *Pipeline) LockPath() string {
	return p.lockPath
}

// Run executes every stage for the given day, in order, regardless of
// earlier stage outcomes. Stage failures land in the returned results; the
// error return is reserved for the lock and context cancellation.
func (p *Pipeline) Run(ctx context.Context, day time.Time) ([]stage.Result, error) {
	lock := flock.New(p.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrStageFailure, "pipeline", "lock", p.lockPath, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock", "another pipeline run is in progress", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("failed to release pipeline lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithDate(ctx, day.Format(bucket.DateLayout))
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("pipeline run started", logging.Int("stages", len(p.handlers)))

	results := make([]stage.Result, 0, len(p.handlers))
	for _, handler := range p.handlers {
		if err := ctx.Err(); err != nil {
			return results, services.Wrap(services.ErrStageFailure, handler.Name(), "run", "pipeline canceled", err)
		}

		result, err := handler.Run(ctx, day)
		if err != nil && !result.Failed() {
			result = stage.Fail(handler.Name(), result.Elapsed, err)
		}
		results = append(results, result)

		stageLogger := logger.With(logging.String(logging.FieldStage, handler.Name()))
		if result.Failed() {
			stageLogger.Error("stage failed",
				logging.String("detail", result.Detail),
				logging.Duration("elapsed", result.Elapsed),
				logging.Error(err))
			if notifyErr := p.notifier.NotifyStageFailed(ctx, day, result); notifyErr != nil {
				stageLogger.Warn("stage failure notification failed", logging.Error(notifyErr))
			}
			continue
		}
		stageLogger.Info("stage finished",
			logging.String("status", string(result.Status)),
			logging.Int("processed", result.Processed),
			logging.Int("errored", result.Errored),
			logging.Duration("elapsed", result.Elapsed))
	}

	if err := p.notifier.NotifyRunCompleted(ctx, day, results); err != nil {
		logger.Warn("run notification failed", logging.Error(err))
	}
	logger.Info("pipeline run finished", logging.Int("stages", len(results)))
	return results, nil
}
