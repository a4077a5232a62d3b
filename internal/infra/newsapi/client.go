// Package newsapi implements a category source backed by the NewsAPI top-headlines endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"newsreader/internal/domain/entity"
	"newsreader/internal/resilience/circuitbreaker"
	"newsreader/internal/resilience/retry"
)

const (
	// DefaultBaseURL is the public NewsAPI v2 endpoint.
	DefaultBaseURL = "https://newsapi.org/v2"

	maxResponseSize = 5 * 1024 * 1024 // 5MB
	userAgent       = "NewsReader/1.0"
)

// Config holds NewsAPI client settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Country  string
	PageSize int

	// RequestsPerSecond and Burst shape the outbound token bucket.
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns client defaults. APIKey must still be set.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Country:           "us",
		PageSize:          20,
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// Client fetches top headlines per category.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
}

// Option customizes a Client.
type Option func(*Client)

// WithRetryConfig overrides the retry profile.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithCircuitBreaker overrides the circuit breaker.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// NewClient returns a Client. Zero fields of cfg take their DefaultConfig values.
func NewClient(httpClient *http.Client, cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	c := &Client{
		http:    httpClient,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: circuitbreaker.New(circuitbreaker.NewsAPIConfig()),
		retry:   retry.NewsAPIConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchCategory returns the current top headlines for category.
// Withdrawn ("[Removed]") and URL-less records are dropped.
func (c *Client) FetchCategory(ctx context.Context, category entity.Category) ([]entity.Article, error) {
	var articles []entity.Article

	err := retry.WithBackoff(ctx, c.retry, func() error {
		res, err := circuitbreaker.Do(c.breaker, func() ([]entity.Article, error) {
			return c.doFetch(ctx, category)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("newsapi circuit breaker open, request rejected",
					slog.String("service", "newsapi"),
					slog.String("category", string(category)),
					slog.String("state", c.breaker.State().String()))
			}
			return err
		}
		articles = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("FetchCategory %s: %w", category, err)
	}
	return articles, nil
}

func (c *Client) doFetch(ctx context.Context, category entity.Category) ([]entity.Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("category", string(category))
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	if c.cfg.Country != "" {
		q.Set("country", c.cfg.Country)
	}
	endpoint := c.cfg.BaseURL + "/top-headlines?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var payload topHeadlinesResponse
	decodeErr := json.Unmarshal(body, &payload)

	if payload.Status == "error" {
		return nil, &APIError{Code: payload.Code, Message: payload.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	return toArticles(payload.Articles), nil
}

func toArticles(in []apiArticle) []entity.Article {
	out := make([]entity.Article, 0, len(in))
	for _, a := range in {
		if a.Title == removedMarker || a.URL == "" || a.URL == "https://removed.com" {
			continue
		}
		content := CleanContent(a.Content)
		if content == "" {
			content = CleanContent(a.Description)
		}
		out = append(out, entity.Article{
			Title:       strings.TrimSpace(a.Title),
			ImageURL:    strings.TrimSpace(a.URLToImage),
			Source:      a.Source.Name,
			PublishedAt: parsePublishedAt(a.PublishedAt),
			Content:     content,
			URL:         a.URL,
		})
	}
	return out
}

// parsePublishedAt parses an ISO-8601 timestamp; unparseable values become the zero time.
func parsePublishedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	slog.Debug("unparseable publishedAt", slog.String("value", s))
	return time.Time{}
}
