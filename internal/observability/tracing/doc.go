// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are opened around each news refresh, each per-category fetch, and each
// inbound HTTP request. Init installs an SDK provider so spans carry real trace IDs;
// without it the global no-op provider is used.
//
// Example usage:
//
//	shutdown := tracing.Init()
//	defer func() { _ = shutdown(context.Background()) }()
//
//	ctx, span := tracing.StartSpan(ctx, "news.FetchCategory",
//	    attribute.String("category", "sports"))
//	defer span.End()
package tracing
