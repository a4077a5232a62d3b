package news

import (
	"context"
	"log/slog"
	"time"

	"newsreader/internal/domain/entity"
	"newsreader/internal/observability/metrics"
	"newsreader/internal/utils/text"
)

// Expand returns a with its full text when the cached content is short.
//
// Behavior:
//   - no ContentFetcher configured → a unchanged
//   - content length in characters >= ContentThreshold → a unchanged
//   - fetch error, or fetched text not longer than a.Content → a unchanged
//
// Expand never fails; the cached content is always a valid fallback.
func (s *Service) Expand(ctx context.Context, a entity.Article) entity.Article {
	if s.content == nil || a.URL == "" {
		return a
	}
	cached := text.CountRunes(a.Content)
	if cached >= s.cfg.ContentThreshold {
		metrics.RecordContentFetchSkipped()
		return a
	}

	start := time.Now()
	full, err := s.content.FetchContent(ctx, a.URL)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordContentFetchFailed(duration)
		s.logger.Warn("content fetch failed, using cached content",
			slog.String("url", a.URL),
			slog.Int("cached_length", cached),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return a
	}

	if text.CountRunes(full) <= cached {
		metrics.RecordContentFetchSkipped()
		return a
	}

	metrics.RecordContentFetchSuccess(duration)
	s.logger.Debug("content expanded",
		slog.String("url", a.URL),
		slog.Int("cached_length", cached),
		slog.Int("fetched_length", text.CountRunes(full)))
	a.Content = full
	return a
}
