// Package observability groups logging, Prometheus metrics, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: slog construction and request-scoped loggers
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
