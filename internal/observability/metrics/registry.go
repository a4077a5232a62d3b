// Package metrics provides centralized Prometheus metrics for the news reader.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, route, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration buckets cover fast cache reads (5ms) through full refreshes (10s).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight tracks the current number of HTTP requests being processed.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// News aggregation metrics
var (
	// RefreshTotal counts refreshes by outcome status (fresh, cached, empty) and origin.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_refresh_total",
			Help: "Total number of news refreshes by status and cache origin",
		},
		[]string{"status", "origin"},
	)

	// RefreshDuration measures end-to-end refresh latency.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "news_refresh_duration_seconds",
			Help:    "Time taken by a news refresh, including fallback",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// CategoryFetchDuration measures per-category upstream fetch latency.
	CategoryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "news_category_fetch_duration_seconds",
			Help:    "Time taken to fetch one category from the news source",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"category", "result"},
	)

	// CachedArticles is the size of the in-memory news cache.
	CachedArticles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "news_cache_articles",
			Help: "Number of articles in the in-memory news cache",
		},
	)

	// StoreWriteFailures counts snapshot writes that failed after retries.
	StoreWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_store_write_failures_total",
			Help: "Total number of local store writes that failed after retries",
		},
		[]string{"key"},
	)

	// ContentFetchAttemptsTotal counts full-text fetches by result (success, failure, skipped).
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of article full-text fetch attempts",
		},
		[]string{"result"},
	)

	// ContentFetchDuration measures full-text fetch latency.
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch and extract article full text",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Favorites and connectivity metrics
var (
	// FavoritesToggleTotal counts toggles by action (added, removed).
	FavoritesToggleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favorites_toggle_total",
			Help: "Total number of favorite toggles by action",
		},
		[]string{"action"},
	)

	// FavoritesTotal is the size of the favorites set.
	FavoritesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "favorites_total",
			Help: "Number of favorited articles",
		},
	)

	// ConnectivityOnline is 1 while the news source is reachable, 0 otherwise.
	ConnectivityOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "connectivity_online",
			Help: "Whether the news source is currently reachable (1) or not (0)",
		},
	)
)
