// Package scraper implements a news category source backed by RSS and Atom feeds.
// It uses the gofeed library to parse feed content with reliability patterns.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"newsreader/internal/domain/entity"
	"newsreader/internal/resilience/circuitbreaker"
	"newsreader/internal/resilience/retry"
	"newsreader/internal/utils/text"
)

const userAgent = "NewsReaderBot/1.0"

// RSSFetcher fetches and parses a single feed.
// It includes circuit breaker and retry logic for improved reliability.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSFetcher creates a new RSSFetcher with the given HTTP client.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// WithRetryConfig returns f with a different retry profile.
func (f *RSSFetcher) WithRetryConfig(cfg retry.Config) *RSSFetcher {
	f.retryConfig = cfg
	return f
}

// Fetch retrieves feedURL and maps its items to articles. Category is left empty;
// the caller assigns it.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]entity.Article, error) {
	var articles []entity.Article

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		res, err := circuitbreaker.Do(f.circuitBreaker, func() ([]entity.Article, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		articles = res
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return articles, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]entity.Article, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}
	return feedToArticles(feed), nil
}

func feedToArticles(feed *gofeed.Feed) []entity.Article {
	articles := make([]entity.Article, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || strings.TrimSpace(it.Link) == "" || strings.TrimSpace(it.Title) == "" {
			continue
		}

		var publishedAt time.Time
		switch {
		case it.PublishedParsed != nil:
			publishedAt = it.PublishedParsed.UTC()
		case it.UpdatedParsed != nil:
			publishedAt = it.UpdatedParsed.UTC()
		}

		// Content first, then Description.
		content := text.PlainText(it.Content)
		if content == "" {
			content = text.PlainText(it.Description)
		}

		articles = append(articles, entity.Article{
			Title:       strings.TrimSpace(it.Title),
			ImageURL:    itemImage(it),
			Source:      strings.TrimSpace(feed.Title),
			PublishedAt: publishedAt,
			Content:     content,
			URL:         strings.TrimSpace(it.Link),
		})
	}
	return articles
}

// itemImage picks the preview image: <image>, then an image enclosure, then
// media:thumbnail or media:content.
func itemImage(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	media, ok := it.Extensions["media"]
	if !ok {
		return ""
	}
	for _, name := range []string{"thumbnail", "content"} {
		for _, ext := range media[name] {
			if u := ext.Attrs["url"]; u != "" {
				if name == "content" && ext.Attrs["medium"] != "" && ext.Attrs["medium"] != "image" {
					continue
				}
				return u
			}
		}
	}
	return ""
}
