// Package news exposes the news aggregator over HTTP.
package news

import (
	"log/slog"
	"net/http"

	"newsreader/internal/handler/http/respond"
	favUC "newsreader/internal/usecase/favorite"
	newsUC "newsreader/internal/usecase/news"
)

// Register mounts the news routes on mux.
func Register(mux *http.ServeMux, svc *newsUC.Service, favorites *favUC.Service, logger *slog.Logger) {
	mux.Handle("GET /news", ListHandler{Svc: svc, Favorites: favorites, Logger: logger})
	mux.Handle("POST /news/refresh", RefreshHandler{Svc: svc, Logger: logger})
	mux.Handle("GET /news/article", GetHandler{Svc: svc, Favorites: favorites, Logger: logger})
	mux.Handle("GET /categories", CategoriesHandler{Svc: svc})
}

// CategoriesHandler lists the configured categories in fetch order.
type CategoriesHandler struct {
	Svc *newsUC.Service
}

func (h CategoriesHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, CategoriesResponse{Categories: h.Svc.Categories()})
}
