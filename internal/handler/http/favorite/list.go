package favorite

import (
	"net/http"
	"strings"

	"newsreader/internal/domain/entity"
	"newsreader/internal/handler/http/respond"
	favUC "newsreader/internal/usecase/favorite"
)

// ListResponse is the body of GET /favorites, in the order articles were saved.
type ListResponse struct {
	Favorites []entity.Article `json:"favorites"`
	Count     int              `json:"count"`
}

type ListHandler struct {
	Svc *favUC.Service
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	items := h.Svc.List()
	if items == nil {
		items = []entity.Article{}
	}
	respond.JSON(w, http.StatusOK, ListResponse{Favorites: items, Count: len(items)})
}

// CheckResponse is the body of GET /favorites/check.
type CheckResponse struct {
	URL       string `json:"url"`
	Favorited bool   `json:"favorited"`
}

type CheckHandler struct {
	Svc *favUC.Service
}

func (h CheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		respond.SafeError(w, http.StatusBadRequest, &entity.ValidationError{Field: "url", Message: "url is required"})
		return
	}
	respond.JSON(w, http.StatusOK, CheckResponse{URL: url, Favorited: h.Svc.IsFavorited(url)})
}
