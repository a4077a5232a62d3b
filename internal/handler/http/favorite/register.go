// Package favorite exposes the favorites store over HTTP.
package favorite

import (
	"log/slog"
	"net/http"

	"newsreader/internal/domain/entity"
	favUC "newsreader/internal/usecase/favorite"
)

// ArticleLookup resolves an article by URL. *news.Service implements it.
type ArticleLookup interface {
	Get(url string) (entity.Article, bool)
}

// Register mounts the favorites routes on mux. lookup may be nil.
func Register(mux *http.ServeMux, svc *favUC.Service, lookup ArticleLookup, logger *slog.Logger) {
	mux.Handle("GET /favorites", ListHandler{Svc: svc})
	mux.Handle("GET /favorites/check", CheckHandler{Svc: svc})
	mux.Handle("POST /favorites/toggle", ToggleHandler{Svc: svc, Lookup: lookup, Logger: logger})
}
