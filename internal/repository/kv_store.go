package repository

import "context"

// Storage keys owned by the core services.
const (
	// KeyCachedNews holds the JSON snapshot of the last aggregated article list.
	KeyCachedNews = "@cachedNews"
	// KeyFavorites holds the JSON array of favorited articles.
	KeyFavorites = "@favorites"
)

// KeyValueStore is the local persistent store: string keys to string values.
// Implementations must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the value stored at key. ok is false when the key is absent,
	// which is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error
}
