// Package connectivity exposes the connectivity oracle over HTTP.
package connectivity

import (
	"context"
	"net/http"
	"time"

	"newsreader/internal/domain/entity"
	"newsreader/internal/handler/http/respond"
)

// Oracle reports the reachability of the news source.
type Oracle interface {
	CurrentStatus(ctx context.Context) entity.ConnectivityStatus
}

// StatusResponse is the body of GET /connectivity.
type StatusResponse struct {
	Status    entity.ConnectivityStatus `json:"status"`
	Online    bool                      `json:"online"`
	CheckedAt time.Time                 `json:"checkedAt"`
}

// StatusHandler asks the oracle for a fresh status on every request.
type StatusHandler struct {
	Oracle Oracle
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Oracle.CurrentStatus(r.Context())
	respond.JSON(w, http.StatusOK, StatusResponse{
		Status:    status,
		Online:    status.Online(),
		CheckedAt: time.Now().UTC(),
	})
}

// Register mounts GET /connectivity on mux.
func Register(mux *http.ServeMux, oracle Oracle) {
	mux.Handle("GET /connectivity", StatusHandler{Oracle: oracle})
}
