// Package news implements the news aggregator: it fetches every configured category,
// maintains the in-memory news cache, persists and restores its snapshot, and serves
// filtered reads of the cache.
package news

import "errors"

// Sentinel errors for news use case operations.
var (
	// ErrNoCategories indicates the service was built without any category to fetch.
	ErrNoCategories = errors.New("no categories configured")

	// ErrMalformedSnapshot indicates the persisted snapshot could not be decoded.
	// The aggregator treats it as "no cache".
	ErrMalformedSnapshot = errors.New("malformed news snapshot")

	// ErrRefreshAbandoned indicates a refresh ran out of time before the cache was swapped,
	// or that the caller stopped waiting for it.
	ErrRefreshAbandoned = errors.New("refresh abandoned")
)
