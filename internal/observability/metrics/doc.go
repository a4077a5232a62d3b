// Package metrics provides the Prometheus metrics registry and recording helpers.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - News refresh and per-category fetch metrics
//   - Favorites and connectivity gauges
//   - Local store write failures
//
// All metrics are registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	articles, err := source.FetchCategory(ctx, category)
//	metrics.RecordCategoryFetch(string(category), time.Since(start), err)
package metrics
