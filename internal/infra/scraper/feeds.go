package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"newsreader/internal/domain/entity"
)

// ErrNoFeeds is returned for a category with no configured feed.
var ErrNoFeeds = errors.New("no feeds configured for category")

// FeedSource serves a news category from one or more feeds.
type FeedSource struct {
	fetcher  *RSSFetcher
	feeds    map[entity.Category][]string
	pageSize int
}

// NewFeedSource returns a FeedSource. pageSize bounds the articles returned per
// category; zero means unbounded.
func NewFeedSource(fetcher *RSSFetcher, feeds map[entity.Category][]string, pageSize int) *FeedSource {
	copied := make(map[entity.Category][]string, len(feeds))
	for c, urls := range feeds {
		copied[c] = slices.Clone(urls)
	}
	return &FeedSource{fetcher: fetcher, feeds: copied, pageSize: pageSize}
}

// FetchCategory fetches every feed of category concurrently and merges the items,
// newest first, without duplicate URLs. The category fails only when every feed fails.
func (s *FeedSource) FetchCategory(ctx context.Context, category entity.Category) ([]entity.Article, error) {
	urls := s.feeds[category]
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFeeds, category)
	}

	results := make([][]entity.Article, len(urls))
	errs := make([]error, len(urls))

	var eg errgroup.Group
	for i, u := range urls {
		eg.Go(func() error {
			results[i], errs[i] = s.fetcher.Fetch(ctx, u)
			if errs[i] != nil {
				slog.Warn("feed fetch failed",
					slog.String("category", string(category)),
					slog.String("url", u),
					slog.Any("error", errs[i]))
			}
			return nil
		})
	}
	_ = eg.Wait()

	var merged []entity.Article
	seen := make(map[string]struct{})
	failed := 0
	for i := range urls {
		if errs[i] != nil {
			failed++
			continue
		}
		for _, a := range results[i] {
			if _, dup := seen[a.URL]; dup {
				continue
			}
			seen[a.URL] = struct{}{}
			merged = append(merged, a)
		}
	}
	if failed == len(urls) {
		return nil, fmt.Errorf("all %d feeds failed: %w", failed, errors.Join(errs...))
	}

	slices.SortStableFunc(merged, func(a, b entity.Article) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	if s.pageSize > 0 && len(merged) > s.pageSize {
		merged = merged[:s.pageSize]
	}
	return merged, nil
}

// Categories returns the categories that have at least one feed.
func (s *FeedSource) Categories() []entity.Category {
	out := make([]entity.Category, 0, len(s.feeds))
	for c, urls := range s.feeds {
		if len(urls) > 0 {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}
