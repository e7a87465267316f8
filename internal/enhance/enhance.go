package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"happytube/internal/assess"
	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/logging"
	"happytube/internal/record"
	"happytube/internal/services"
	"happytube/internal/services/llm"
	"happytube/internal/stage"
)

// StageName identifies the enhance stage and its bucket directory.
const StageName = "enhance"

// Completer describes the LLM surface the enhance stage depends on.
type Completer interface {
	CompleteJSON(ctx context.Context, req llm.Request) (string, error)
}

// Enhancer rewrites descriptions of sufficiently happy videos.
type Enhancer struct {
	cfg    *config.Config
	in     *bucket.Store
	out    *bucket.Store
	client Completer
	logger *slog.Logger
	now    func() time.Time
}

// NewEnhancer constructs the enhance stage handler using default dependencies.
func NewEnhancer(cfg *config.Config, logger *slog.Logger) *Enhancer {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewEnhancerWithDependencies(cfg, logger, client)
}

// NewEnhancerWithDependencies allows injecting collaborators (used in tests).
func NewEnhancerWithDependencies(cfg *config.Config, logger *slog.Logger, client Completer) *Enhancer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enhancer{
		cfg:    cfg,
		in:     bucket.NewStore(cfg.Paths.StagesDir, assess.StageName),
		out:    bucket.NewStore(cfg.Paths.StagesDir, StageName),
		client: client,
		logger: logger.With(logging.String(logging.FieldComponent, StageName)),
		now:    time.Now,
	}
}

func (e *Enhancer) Name() string {
	return StageName
}

type batchItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type enhancement struct {
	ID          string `json:"id"`
	Language    string `json:"language"`
	Description string `json:"description_improved"`
}

// Run loads the assess bucket, keeps records at or above the happiness
// threshold, and rewrites their descriptions in LLM batches. Records below
// the threshold are filtered, not errors.
func (e *Enhancer) Run(ctx context.Context, day time.Time) (stage.Result, error) {
	start := e.now()
	ctx = services.WithStage(ctx, StageName)
	logger := logging.WithContext(ctx, e.logger)

	if _, err := e.out.Ensure(day); err != nil {
		wrapped := services.Wrap(services.ErrStageFailure, StageName, "ensure", "create output bucket", err)
		return stage.Fail(StageName, e.now().Sub(start), wrapped), wrapped
	}

	records, skipped, err := e.in.LoadAll(day)
	if err != nil {
		return stage.Fail(StageName, e.now().Sub(start), err), err
	}
	errored := skipped
	if len(records) == 0 {
		return stage.Result{
			Stage:   StageName,
			Status:  stage.StatusNoInput,
			Errored: errored,
			Detail:  "no assessed videos for this date",
			Elapsed: e.now().Sub(start),
		}, nil
	}

	threshold := e.cfg.Processing.HappinessThreshold
	eligible := records[:0]
	for _, rec := range records {
		score, ok := rec.Meta.GetInt(record.FieldHappinessScore)
		if !ok {
			errored++
			logger.Warn("record missing happiness score", logging.String("video_id", rec.Key))
			continue
		}
		if score >= threshold {
			eligible = append(eligible, rec)
		}
	}
	logger.Info("threshold applied",
		logging.Int("eligible", len(eligible)),
		logging.Int("threshold", threshold),
	)
	if len(eligible) == 0 {
		return stage.Result{
			Stage:   StageName,
			Status:  stage.StatusNoInput,
			Errored: errored,
			Detail:  fmt.Sprintf("no videos at or above happiness %d", threshold),
			Elapsed: e.now().Sub(start),
		}, nil
	}

	prompt, err := e.cfg.PromptTemplate(e.cfg.Processing.EnhancePrompt)
	if err != nil {
		return stage.Fail(StageName, e.now().Sub(start), err), err
	}
	enhancedAt := e.now().UTC().Format(time.RFC3339)

	processed := 0
	batches, failedBatches := 0, 0
	for batchStart := 0; batchStart < len(eligible); batchStart += e.cfg.Processing.BatchSize {
		batchEnd := batchStart + e.cfg.Processing.BatchSize
		if batchEnd > len(eligible) {
			batchEnd = len(eligible)
		}
		batch := eligible[batchStart:batchEnd]
		batches++

		results, err := e.enhanceBatch(ctx, prompt, batch)
		if err != nil {
			failedBatches++
			errored += len(batch)
			logger.Warn("batch failed", logging.Int("batch_size", len(batch)), logging.Error(err))
			continue
		}

		for _, rec := range batch {
			enhanced, ok := results[rec.Key]
			if !ok || strings.TrimSpace(enhanced.Description) == "" {
				errored++
				logger.Warn("no enhancement in response", logging.String("video_id", rec.Key))
				continue
			}
			updated := rec.Clone()
			description := strings.TrimSpace(enhanced.Description)
			updated.Meta.Set(record.FieldEnhancedDescription, description)
			updated.Meta.Set(record.FieldEnhancedAt, enhancedAt)
			updated.Meta.Set(record.FieldLanguage, strings.ToLower(strings.TrimSpace(enhanced.Language)))
			updated.Body = "# " + updated.Meta.GetString(record.FieldTitle) + "\n\n" + description
			if err := e.out.Save(day, updated); err != nil {
				errored++
				logger.Warn("save failed", logging.String("video_id", rec.Key), logging.Error(err))
				continue
			}
			processed++
		}
	}

	elapsed := e.now().Sub(start)
	if processed == 0 && failedBatches == batches {
		wrapped := services.Wrap(services.ErrStageFailure, StageName, "enhance", "all batches failed", nil)
		return stage.Fail(StageName, elapsed, wrapped), wrapped
	}

	// Eligible input was nonempty, so even a run where every item errored
	// is a success with a nonzero error count, not no_input.
	result := stage.Result{
		Stage:     StageName,
		Status:    stage.StatusSuccess,
		Processed: processed,
		Errored:   errored,
		Detail:    fmt.Sprintf("%d of %d eligible enhanced", processed, len(eligible)),
		Elapsed:   elapsed,
	}
	logger.Info("enhance complete",
		logging.Int("processed", processed),
		logging.Int("errored", errored),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (e *Enhancer) enhanceBatch(ctx context.Context, prompt config.Prompt, batch []record.Record) (map[string]enhancement, error) {
	items := make([]batchItem, 0, len(batch))
	for _, rec := range batch {
		items = append(items, batchItem{
			ID:          rec.Key,
			Description: assess.Description(rec),
		})
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	content, err := e.client.CompleteJSON(ctx, llm.Request{
		System:    prompt.Template,
		User:      string(payload),
		Model:     prompt.Model,
		MaxTokens: prompt.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	var parsed []enhancement
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	results := make(map[string]enhancement, len(parsed))
	for _, item := range parsed {
		results[item.ID] = item
	}
	return results, nil
}
