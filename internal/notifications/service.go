package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"happytube/internal/stage"
)

const userAgent = "happytube/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunCompleted(ctx context.Context, day time.Time, results []stage.Result) error
	NotifyStageFailed(ctx context.Context, day time.Time, result stage.Result) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(topic string, requestTimeout time.Duration) Service {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return noopService{}
	}
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, day time.Time, results []stage.Result) error {
	var builder strings.Builder
	failed := 0
	fmt.Fprintf(&builder, "Pipeline for %s:\n", day.Format("2006-01-02"))
	for _, result := range results {
		fmt.Fprintf(&builder, "%s: %s (%d ok, %d errors)\n", result.Stage, result.Status, result.Processed, result.Errored)
		if result.Failed() {
			failed++
		}
	}
	data := payload{
		title:   "happytube - Run Complete",
		message: strings.TrimRight(builder.String(), "\n"),
		tags:    []string{"happytube", "run", "completed"},
	}
	if failed > 0 {
		data.title = "happytube - Run Finished With Failures"
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStageFailed(ctx context.Context, day time.Time, result stage.Result) error {
	data := payload{
		title:    "happytube - Stage Failed",
		message:  fmt.Sprintf("%s failed for %s: %s", result.Stage, day.Format("2006-01-02"), result.Detail),
		tags:     []string{"happytube", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "happytube - Test",
		message:  "Notification system test",
		tags:     []string{"happytube", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, time.Time, []stage.Result) error { return nil }
func (noopService) NotifyStageFailed(context.Context, time.Time, stage.Result) error    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
