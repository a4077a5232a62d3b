package news

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"newsreader/internal/domain/entity"
	"newsreader/internal/handler/http/respond"
	"newsreader/internal/observability/logging"
	favUC "newsreader/internal/usecase/favorite"
	newsUC "newsreader/internal/usecase/news"
)

// GetHandler serves one article by URL.
//
// The news cache is consulted first, then the favorites set, so saved articles stay
// readable after they drop out of the headlines. With full=true the content is
// expanded to the full text of the page when the cached excerpt is short.
type GetHandler struct {
	Svc       *newsUC.Service
	Favorites *favUC.Service
	Logger    *slog.Logger
}

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	url := strings.TrimSpace(q.Get("url"))
	if err := entity.ValidateURL(url); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	full := false
	if raw := q.Get("full"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest,
				&entity.ValidationError{Field: "full", Message: fmt.Sprintf("must be a boolean, got %q", raw)})
			return
		}
		full = v
	}

	a, ok := h.Svc.Get(url)
	if !ok {
		a, ok = h.Favorites.Get(url)
	}
	if !ok {
		respond.SafeError(w, http.StatusNotFound, fmt.Errorf("article %s: %w", url, entity.ErrNotFound))
		return
	}

	if full {
		before := len(a.Content)
		a = h.Svc.Expand(r.Context(), a)
		logging.WithRequestID(r.Context(), h.Logger).Debug("article detail expanded",
			slog.String("url", url),
			slog.Bool("changed", len(a.Content) != before))
	}

	respond.JSON(w, http.StatusOK, DTO{Article: a, Favorited: h.Favorites.IsFavorited(url)})
}
