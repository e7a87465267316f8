package fetch

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"happytube/internal/bucket"
	"happytube/internal/config"
	"happytube/internal/logging"
	"happytube/internal/record"
	"happytube/internal/services"
	"happytube/internal/services/youtube"
	"happytube/internal/stage"
	"happytube/internal/textutil"
)

// StageName identifies the fetch stage and its bucket directory.
const StageName = "fetch"

// VideoSource describes the YouTube surface the fetch stage depends on.
type VideoSource interface {
	Search(ctx context.Context, params youtube.SearchParams) ([]youtube.Video, error)
	Durations(ctx context.Context, ids []string) (map[string]int, error)
}

// Fetcher retrieves videos for a day and persists them as records.
type Fetcher struct {
	cfg     *config.Config
	store   *bucket.Store
	source  VideoSource
	logger  *slog.Logger
	now     func() time.Time
	profile string
}

// NewFetcher constructs the fetch stage handler using default dependencies.
func NewFetcher(cfg *config.Config, logger *slog.Logger) *Fetcher {
	client := youtube.NewClient(youtube.Config{
		APIKey:  cfg.YouTube.APIKey,
		BaseURL: cfg.YouTube.BaseURL,
	})
	return NewFetcherWithDependencies(cfg, logger, client)
}

// NewFetcherWithDependencies allows injecting collaborators (used in tests).
func NewFetcherWithDependencies(cfg *config.Config, logger *slog.Logger, source VideoSource) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		cfg:    cfg,
		store:  bucket.NewStore(cfg.Paths.StagesDir, StageName),
		source: source,
		logger: logger.With(logging.String(logging.FieldComponent, StageName)),
		now:    time.Now,
	}
}

// SetProfile selects the named search profile for subsequent runs. An empty
// name keeps the configured default.
func (f *Fetcher) SetProfile(name string) {
	f.profile = strings.TrimSpace(name)
}

// Store exposes the fetch bucket for downstream stages.
func (f *Fetcher) Store() *bucket.Store {
	return f.store
}

func (f *Fetcher) Name() string {
	return StageName
}

// Run searches YouTube with the configured profile and saves one record per
// video. A failed search is a stage failure; a failed save is an item error.
func (f *Fetcher) Run(ctx context.Context, day time.Time) (stage.Result, error) {
	start := f.now()
	ctx = services.WithStage(ctx, StageName)
	logger := logging.WithContext(ctx, f.logger)

	if _, err := f.store.Ensure(day); err != nil {
		wrapped := services.Wrap(services.ErrStageFailure, StageName, "ensure", "create output bucket", err)
		return stage.Fail(StageName, f.now().Sub(start), wrapped), wrapped
	}

	profile, err := f.cfg.SearchProfile(f.profile)
	if err != nil {
		return stage.Fail(StageName, f.now().Sub(start), err), err
	}

	videos, err := f.source.Search(ctx, youtube.SearchParams{
		Region:            profile.Region,
		CategoryID:        profile.CategoryID,
		Order:             profile.Order,
		SafeSearch:        profile.SafeSearch,
		Duration:          profile.Duration,
		RelevanceLanguage: profile.RelevanceLanguage,
		MaxResults:        profile.MaxResults,
	})
	if err != nil {
		wrapped := services.Wrap(services.ErrStageFailure, StageName, "search", "video search failed", err)
		return stage.Fail(StageName, f.now().Sub(start), wrapped), wrapped
	}
	if len(videos) == 0 {
		return stage.Result{
			Stage:   StageName,
			Status:  stage.StatusNoInput,
			Detail:  "search returned no videos",
			Elapsed: f.now().Sub(start),
		}, nil
	}
	if len(videos) > f.cfg.Processing.MaxVideos {
		videos = videos[:f.cfg.Processing.MaxVideos]
	}
	logger.Info("videos retrieved", logging.Int("count", len(videos)))

	durations := f.lookupDurations(ctx, logger, videos)

	fetchedAt := f.now().UTC().Format(time.RFC3339)
	saved, errored := 0, 0
	for _, video := range videos {
		rec := buildRecord(video, durations[video.ID], fetchedAt)
		if err := f.store.Save(day, rec); err != nil {
			errored++
			logger.Warn("save failed", logging.String("video_id", video.ID), logging.Error(err))
			continue
		}
		saved++
	}

	result := stage.Result{
		Stage:     StageName,
		Status:    stage.StatusSuccess,
		Processed: saved,
		Errored:   errored,
		Detail:    fmt.Sprintf("%d videos saved", saved),
		Elapsed:   f.now().Sub(start),
	}
	logger.Info("fetch complete",
		logging.Int("saved", saved),
		logging.Int("errored", errored),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// Duration lookups are an enrichment, not a requirement. A failure here
// leaves the duration field off the records instead of failing the stage.
func (f *Fetcher) lookupDurations(ctx context.Context, logger *slog.Logger, videos []youtube.Video) map[string]int {
	if len(videos) == 0 {
		return nil
	}
	ids := make([]string, 0, len(videos))
	for _, video := range videos {
		ids = append(ids, video.ID)
	}
	durations, err := f.source.Durations(ctx, ids)
	if err != nil {
		logger.Warn("duration lookup failed", logging.Error(err))
		return nil
	}
	return durations
}

func buildRecord(video youtube.Video, durationSeconds int, fetchedAt string) record.Record {
	title := html.UnescapeString(video.Title)
	meta := record.Metadata{}
	meta.Set(record.FieldVideoID, video.ID)
	meta.Set(record.FieldTitle, title)
	meta.Set(record.FieldChannel, video.Channel)
	meta.Set(record.FieldChannelID, video.ChannelID)
	meta.Set(record.FieldPublishedAt, video.PublishedAt)
	if durationSeconds > 0 {
		meta.Set(record.FieldDurationSeconds, durationSeconds)
	}
	meta.Set(record.FieldScript, textutil.DetectScript(video.Title))
	meta.Set(record.FieldFetchedAt, fetchedAt)

	body := "# " + title
	if description := strings.TrimSpace(video.Description); description != "" {
		body += "\n\n" + description
	}
	return record.Record{Key: video.ID, Meta: meta, Body: body}
}
