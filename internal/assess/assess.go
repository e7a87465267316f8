package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/fetch"
	"happytube/internal/logging"
	"happytube/internal/record"
	"happytube/internal/services"
	"happytube/internal/services/llm"
	"happytube/internal/stage"
)

// StageName identifies the assess stage and its bucket directory.
const StageName = "assess"

// Completer describes the LLM surface the assess stage depends on.
type Completer interface {
	CompleteJSON(ctx context.Context, req llm.Request) (string, error)
}

// Assessor scores fetched videos for happiness in LLM batches.
type Assessor struct {
	cfg    *config.Config
	in     *bucket.Store
	out    *bucket.Store
	client Completer
	logger *slog.Logger
	now    func() time.Time
}

// NewAssessor constructs the assess stage handler using default dependencies.
func NewAssessor(cfg *config.Config, logger *slog.Logger) *Assessor {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewAssessorWithDependencies(cfg, logger, client)
}

// NewAssessorWithDependencies allows injecting collaborators (used in tests).
func NewAssessorWithDependencies(cfg *config.Config, logger *slog.Logger, client Completer) *Assessor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assessor{
		cfg:    cfg,
		in:     bucket.NewStore(cfg.Paths.StagesDir, fetch.StageName),
		out:    bucket.NewStore(cfg.Paths.StagesDir, StageName),
		client: client,
		logger: logger.With(logging.String(logging.FieldComponent, StageName)),
		now:    time.Now,
	}
}

func (a *Assessor) Name() string {
	return StageName
}

type batchItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type assessment struct {
	ID        string `json:"id"`
	Happiness int    `json:"happiness"`
	Reasoning string `json:"reasoning"`
}

// Run loads the fetch bucket for the day and scores each record 1-5 in
// batches. Unmatched or invalid batch responses are item errors; the stage
// fails only when every batch call failed and nothing was scored.
func (a *Assessor) Run(ctx context.Context, day time.Time) (stage.Result, error) {
	start := a.now()
	ctx = services.WithStage(ctx, StageName)
	logger := logging.WithContext(ctx, a.logger)

	if _, err := a.out.Ensure(day); err != nil {
		wrapped := services.Wrap(services.ErrStageFailure, StageName, "ensure", "create output bucket", err)
		return stage.Fail(StageName, a.now().Sub(start), wrapped), wrapped
	}

	records, skipped, err := a.in.LoadAll(day)
	if err != nil {
		return stage.Fail(StageName, a.now().Sub(start), err), err
	}
	errored := skipped
	if len(records) == 0 {
		return stage.Result{
			Stage:   StageName,
			Status:  stage.StatusNoInput,
			Errored: errored,
			Detail:  "no fetched videos for this date",
			Elapsed: a.now().Sub(start),
		}, nil
	}

	prompt, err := a.cfg.PromptTemplate(a.cfg.Processing.AssessPrompt)
	if err != nil {
		return stage.Fail(StageName, a.now().Sub(start), err), err
	}
	assessedAt := a.now().UTC().Format(time.RFC3339)

	processed, scoreSum := 0, 0
	batches, failedBatches := 0, 0
	for batchStart := 0; batchStart < len(records); batchStart += a.cfg.Processing.BatchSize {
		batchEnd := batchStart + a.cfg.Processing.BatchSize
		if batchEnd > len(records) {
			batchEnd = len(records)
		}
		batch := records[batchStart:batchEnd]
		batches++

		results, err := a.assessBatch(ctx, prompt, batch)
		if err != nil {
			failedBatches++
			errored += len(batch)
			logger.Warn("batch failed", logging.Int("batch_size", len(batch)), logging.Error(err))
			continue
		}

		for _, rec := range batch {
			scored, ok := results[rec.Key]
			if !ok {
				errored++
				logger.Warn("no assessment in response", logging.String("video_id", rec.Key))
				continue
			}
			if scored.Happiness < 1 || scored.Happiness > 5 {
				errored++
				logger.Warn("happiness out of range",
					logging.String("video_id", rec.Key),
					logging.Int("happiness", scored.Happiness),
				)
				continue
			}
			updated := rec.Clone()
			updated.Meta.Set(record.FieldHappinessScore, scored.Happiness)
			updated.Meta.Set(record.FieldHappinessReasoning, strings.TrimSpace(scored.Reasoning))
			updated.Meta.Set(record.FieldAssessedAt, assessedAt)
			updated.Meta.Set(record.FieldPromptName, a.cfg.Processing.AssessPrompt)
			updated.Meta.Set(record.FieldPromptVersion, prompt.Version)
			if err := a.out.Save(day, updated); err != nil {
				errored++
				logger.Warn("save failed", logging.String("video_id", rec.Key), logging.Error(err))
				continue
			}
			processed++
			scoreSum += scored.Happiness
		}
	}

	elapsed := a.now().Sub(start)
	if processed == 0 && failedBatches == batches {
		wrapped := services.Wrap(services.ErrStageFailure, StageName, "assess", "all batches failed", nil)
		return stage.Fail(StageName, elapsed, wrapped), wrapped
	}

	detail := fmt.Sprintf("%d assessed", processed)
	if processed > 0 {
		detail = fmt.Sprintf("%d assessed, avg happiness %.1f", processed, float64(scoreSum)/float64(processed))
	}
	// Input was nonempty, so even a run where every item errored is a
	// success with a nonzero error count, not no_input.
	result := stage.Result{
		Stage:     StageName,
		Status:    stage.StatusSuccess,
		Processed: processed,
		Errored:   errored,
		Detail:    detail,
		Elapsed:   elapsed,
	}
	logger.Info("assess complete",
		logging.Int("processed", processed),
		logging.Int("errored", errored),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (a *Assessor) assessBatch(ctx context.Context, prompt config.Prompt, batch []record.Record) (map[string]assessment, error) {
	items := make([]batchItem, 0, len(batch))
	for _, rec := range batch {
		items = append(items, batchItem{
			ID:          rec.Key,
			Title:       rec.Meta.GetString(record.FieldTitle),
			Description: Description(rec),
		})
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	content, err := a.client.CompleteJSON(ctx, llm.Request{
		System:    prompt.Template,
		User:      string(payload),
		Model:     prompt.Model,
		MaxTokens: prompt.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	var parsed []assessment
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	results := make(map[string]assessment, len(parsed))
	for _, item := range parsed {
		results[item.ID] = item
	}
	return results, nil
}

// Description returns the record body without its leading title heading.
func Description(rec record.Record) string {
	body := strings.TrimSpace(rec.Body)
	if strings.HasPrefix(body, "# ") {
		if _, rest, found := strings.Cut(body, "\n"); found {
			return strings.TrimSpace(rest)
		}
		return ""
	}
	return body
}
