package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://www.googleapis.com/youtube/v3"
	defaultHTTPTimeout = 30 * time.Second
	maxPageResults     = 50
)

// Config captures the runtime settings required to talk to the Data API.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// SearchParams describes one parameterized video search. Zero-valued fields
// are omitted from the request so the API applies its own defaults.
type SearchParams struct {
	Region            string
	CategoryID        string
	Order             string
	SafeSearch        string
	Duration          string
	RelevanceLanguage string
	MaxResults        int
}

// Video is one item returned by a search, optionally enriched with its
// duration from a follow-up details call.
type Video struct {
	ID              string
	Title           string
	Description     string
	Channel         string
	ChannelID       string
	PublishedAt     string
	DurationSeconds int
}

// Client wraps the YouTube Data API v3 endpoints the fetch stage needs.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Data API client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimSpace(strings.TrimSuffix(cfg.BaseURL, "/")),
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			ChannelID    string `json:"channelId"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Search runs one parameterized video search. It may return fewer items than
// requested; the API caps page size at 50.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Video, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("youtube search: api key required")
	}
	maxResults := params.MaxResults
	if maxResults <= 0 || maxResults > maxPageResults {
		maxResults = maxPageResults
	}

	values := url.Values{}
	values.Set("key", c.cfg.APIKey)
	values.Set("part", "snippet")
	values.Set("type", "video")
	values.Set("maxResults", strconv.Itoa(maxResults))
	values.Set("videoEmbeddable", "true")
	values.Set("videoDimension", "2d")
	setIfPresent(values, "regionCode", params.Region)
	setIfPresent(values, "videoCategoryId", params.CategoryID)
	setIfPresent(values, "order", params.Order)
	setIfPresent(values, "safeSearch", params.SafeSearch)
	setIfPresent(values, "videoDuration", params.Duration)
	setIfPresent(values, "relevanceLanguage", params.RelevanceLanguage)

	var parsed searchResponse
	if err := c.get(ctx, "/search", values, &parsed); err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	videos := make([]Video, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, Video{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Channel:     item.Snippet.ChannelTitle,
			ChannelID:   item.Snippet.ChannelID,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}
	return videos, nil
}

// Durations fetches the duration in seconds for the given video IDs. IDs the
// API does not return are absent from the result map.
func (c *Client) Durations(ctx context.Context, ids []string) (map[string]int, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("youtube videos: api key required")
	}
	durations := make(map[string]int, len(ids))
	for start := 0; start < len(ids); start += maxPageResults {
		end := start + maxPageResults
		if end > len(ids) {
			end = len(ids)
		}
		values := url.Values{}
		values.Set("key", c.cfg.APIKey)
		values.Set("part", "contentDetails")
		values.Set("id", strings.Join(ids[start:end], ","))

		var parsed videosResponse
		if err := c.get(ctx, "/videos", values, &parsed); err != nil {
			return nil, fmt.Errorf("youtube videos: %w", err)
		}
		for _, item := range parsed.Items {
			seconds, err := ParseISODuration(item.ContentDetails.Duration)
			if err != nil {
				continue
			}
			durations[item.ID] = seconds
		}
	}
	return durations, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, target any) error {
	endpoint := c.cfg.BaseURL + path + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func setIfPresent(values url.Values, key, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		values.Set(key, trimmed)
	}
}
