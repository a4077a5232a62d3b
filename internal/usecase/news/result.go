package news

import (
	"time"

	"newsreader/internal/domain/entity"
)

// Status summarizes what a refresh left in the cache.
type Status string

const (
	// StatusFresh means every category was fetched and the cache was rebuilt.
	StatusFresh Status = "fresh"
	// StatusCached means the cache holds previously fetched articles.
	StatusCached Status = "cached"
	// StatusEmpty means no articles are available.
	StatusEmpty Status = "empty"
)

// Origin says where the articles in the cache came from.
type Origin string

const (
	OriginNetwork  Origin = "network"
	OriginMemory   Origin = "memory"
	OriginSnapshot Origin = "snapshot"
	OriginNone     Origin = "none"
)

// RefreshResult describes one refresh. Refresh never fails; errors that were absorbed
// by the fallback path are reported here for logs, metrics and API consumers.
type RefreshResult struct {
	RunID        string                    `json:"runId"`
	Status       Status                    `json:"status"`
	Origin       Origin                    `json:"origin"`
	Connectivity entity.ConnectivityStatus `json:"connectivity"`
	Articles     int                       `json:"articles"`
	StartedAt    time.Time                 `json:"startedAt"`
	Duration     time.Duration             `json:"-"`
	// Shared is true when the result was delivered to more than one concurrent caller.
	Shared bool `json:"shared"`

	// FetchErr is the aggregated fetch failure that triggered the fallback.
	FetchErr error `json:"-"`
	// CacheErr is a snapshot read or decode failure during fallback.
	CacheErr error `json:"-"`
	// PersistErr is a snapshot write failure after a fresh fetch.
	PersistErr error `json:"-"`
}

// Degraded reports whether the refresh had to absorb any error.
func (r RefreshResult) Degraded() bool {
	return r.FetchErr != nil || r.CacheErr != nil || r.PersistErr != nil
}
