package services

import "context"

type contextKey string

const (
	stageKey contextKey = "stage"
	dateKey  contextKey = "date"
	runIDKey contextKey = "run_id"
)

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDate annotates context with the pipeline target date (YYYY-MM-DD).
func WithDate(ctx context.Context, date string) context.Context {
	if date == "" {
		return ctx
	}
	return context.WithValue(ctx, dateKey, date)
}

// DateFromContext returns the target date if present.
func DateFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(dateKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with a pipeline run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
