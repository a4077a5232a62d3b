// Package http provides the HTTP surface of the news reader: shared middleware,
// health and metrics endpoints, and the server-side plumbing that the news,
// favorite and connectivity handler packages are mounted on.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"newsreader/internal/handler/http/respond"
	"newsreader/internal/usecase/news"
)

// Check status values.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"` // "healthy", "degraded" or "unhealthy"
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// RefreshReporter exposes the aggregator state the health endpoints report on.
// *news.Service implements it.
type RefreshReporter interface {
	Ready() <-chan struct{}
	LastResult() (news.RefreshResult, bool)
}

// HealthHandler reports storage and news cache health.
// A nil DB means memory storage, which is always healthy.
type HealthHandler struct {
	DB      *sql.DB
	News    RefreshReporter
	Version string
}

// ServeHTTP returns 200 when storage is reachable and 503 otherwise.
// A degraded news cache is reported but does not fail the check.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus, 2)
	healthy := true

	storage := h.checkStorage(ctx)
	checks["storage"] = storage
	if storage.Status == statusUnhealthy {
		healthy = false
	}
	if h.News != nil {
		checks["news"] = h.checkNews()
	}

	status, code := statusHealthy, http.StatusOK
	if !healthy {
		status, code = statusUnhealthy, http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

// checkStorage pings the database and reports connection pool statistics.
func (h *HealthHandler) checkStorage(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: statusHealthy, Message: "in-memory"}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		slog.Default().Warn("health: storage ping failed", slog.Any("error", err))
		return CheckStatus{Status: statusUnhealthy, Message: "storage unreachable"}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  statusDegraded,
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}
	if stats.WaitCount > 0 && stats.InUse >= stats.MaxOpenConnections {
		return CheckStatus{
			Status:  statusDegraded,
			Message: "connection pool exhausted",
			Details: details,
		}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// checkNews summarizes the last refresh.
func (h *HealthHandler) checkNews() CheckStatus {
	res, ok := h.News.LastResult()
	if !ok {
		return CheckStatus{Status: statusDegraded, Message: "no refresh completed yet"}
	}
	details := map[string]any{
		"status":       res.Status,
		"origin":       res.Origin,
		"articles":     res.Articles,
		"connectivity": res.Connectivity,
		"refreshed_at": res.StartedAt.UTC().Format(time.RFC3339),
	}
	if res.Degraded() {
		return CheckStatus{Status: statusDegraded, Message: "last refresh fell back", Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// ReadyHandler answers readiness probes. The service is ready once the first news
// refresh has completed and storage answers a ping.
type ReadyHandler struct {
	DB   *sql.DB
	News RefreshReporter
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.News != nil {
		select {
		case <-h.News.Ready():
		default:
			writeText(w, http.StatusServiceUnavailable, "initializing")
			return
		}
	}
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			writeText(w, http.StatusServiceUnavailable, "storage not ready")
			return
		}
	}
	writeText(w, http.StatusOK, "ready")
}

// LiveHandler answers liveness probes.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "alive")
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Default().Debug("probe: failed to write response", slog.Any("error", err))
	}
}
