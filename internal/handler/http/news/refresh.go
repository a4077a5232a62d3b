package news

import (
	"log/slog"
	"net/http"

	"newsreader/internal/handler/http/respond"
	"newsreader/internal/observability/logging"
	newsUC "newsreader/internal/usecase/news"
)

// RefreshHandler runs a refresh and reports its outcome. A refresh that fell back
// to cached data is still a 200: the cache is valid, only its freshness differs.
type RefreshHandler struct {
	Svc    *newsUC.Service
	Logger *slog.Logger
}

func (h RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := h.Svc.Refresh(r.Context())

	logging.WithRequestID(r.Context(), h.Logger).Info("refresh requested",
		slog.String("run_id", res.RunID),
		slog.String("status", string(res.Status)),
		slog.Bool("shared", res.Shared))

	respond.JSON(w, http.StatusOK, toRefreshDTO(res))
}
