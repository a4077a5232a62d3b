package news

import (
	"context"

	"newsreader/internal/domain/entity"
)

// CategorySource fetches the current headlines for one category from the remote news source.
// Implementations may return articles with any Category value; the aggregator overwrites it.
type CategorySource interface {
	FetchCategory(ctx context.Context, category entity.Category) ([]entity.Article, error)
}

// ConnectivityOracle reports whether the remote news source is reachable.
type ConnectivityOracle interface {
	CurrentStatus(ctx context.Context) entity.ConnectivityStatus
}

// ContentFetcher extracts the readable body of an article page.
// It is optional: without one, detail views show the content the source supplied.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}
