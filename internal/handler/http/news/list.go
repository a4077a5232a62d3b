package news

import (
	"log/slog"
	"net/http"
	"strings"

	"newsreader/internal/domain/entity"
	"newsreader/internal/handler/http/respond"
	"newsreader/internal/observability/logging"
	favUC "newsreader/internal/usecase/favorite"
	newsUC "newsreader/internal/usecase/news"
)

// ListHandler serves the filtered news cache.
//
// Query parameters:
//   - q: case-insensitive title substring
//   - category: a known category, or "all"
//   - image: "any" includes articles without a preview image (hidden by default)
type ListHandler struct {
	Svc       *newsUC.Service
	Favorites *favUC.Service
	Logger    *slog.Logger
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithRequestID(r.Context(), h.Logger)

	filter, err := parseFilter(r)
	if err != nil {
		logger.Warn("invalid news filter", slog.Any("error", err))
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	articles := h.Svc.Query(filter)
	resp := ListResponse{
		Articles: make([]DTO, 0, len(articles)),
		Count:    len(articles),
	}
	for _, a := range articles {
		resp.Articles = append(resp.Articles, DTO{Article: a, Favorited: h.Favorites.IsFavorited(a.URL)})
	}
	if last, ok := h.Svc.LastResult(); ok {
		dto := toRefreshDTO(last)
		resp.Refresh = &dto
	}

	respond.JSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (newsUC.Filter, error) {
	q := r.URL.Query()
	f := newsUC.Filter{
		Search:       strings.TrimSpace(q.Get("q")),
		RequireImage: !strings.EqualFold(q.Get("image"), "any"),
	}
	if raw := strings.TrimSpace(q.Get("category")); raw != "" && !strings.EqualFold(raw, string(entity.CategoryAll)) {
		c, err := entity.ParseCategory(raw)
		if err != nil {
			return newsUC.Filter{}, err
		}
		f.Category = c
	}
	return f, nil
}
