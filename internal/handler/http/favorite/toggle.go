package favorite

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"newsreader/internal/domain/entity"
	"newsreader/internal/handler/http/respond"
	"newsreader/internal/observability/logging"
	favUC "newsreader/internal/usecase/favorite"
)

// notPersistedMessage is shown when the toggle applied in memory but could not be saved.
const notPersistedMessage = "could not save favorites, please try again"

// notLoadedMessage is shown when the saved favorites could not be read.
const notLoadedMessage = "favorites are unavailable, please try again"

// NotPersistedResponse is the 503 body of a toggle whose new state was not saved.
// Favorited and Count describe the in-memory state the toggle left behind.
type NotPersistedResponse struct {
	Error     string `json:"error"`
	Favorited bool   `json:"favorited"`
	Count     int    `json:"count"`
}

// ToggleHandler adds or removes the article in the request body.
// A body carrying only a URL is completed from Lookup, then from the favorites set.
type ToggleHandler struct {
	Svc    *favUC.Service
	Lookup ArticleLookup
	Logger *slog.Logger
}

func (h ToggleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithRequestID(r.Context(), h.Logger)

	var a entity.Article
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&a); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Message(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respond.SafeError(w, http.StatusBadRequest,
			&entity.ValidationError{Field: "body", Message: fmt.Sprintf("invalid article JSON: %v", err)})
		return
	}
	a.URL = strings.TrimSpace(a.URL)
	if a.Title == "" {
		a = h.complete(a)
	}

	res, err := h.Svc.Toggle(r.Context(), a)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, res)
	case errors.Is(err, favUC.ErrNotPersisted):
		logger.Warn("favorite toggle not persisted",
			slog.String("url", a.URL),
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusServiceUnavailable, NotPersistedResponse{
			Error:     notPersistedMessage,
			Favorited: res.Favorited,
			Count:     res.Count,
		})
	case errors.Is(err, favUC.ErrNotLoaded):
		logger.Warn("favorite toggle refused, store unreadable",
			slog.String("url", a.URL),
			slog.String("error", respond.SanitizeError(err)))
		respond.Message(w, http.StatusServiceUnavailable, notLoadedMessage)
	case errors.Is(err, entity.ErrValidationFailed):
		respond.SafeError(w, http.StatusBadRequest, err)
	default:
		respond.SafeError(w, http.StatusInternalServerError,
			respond.NewAppError(http.StatusInternalServerError, "could not update favorites", err))
	}
}

func (h ToggleHandler) complete(a entity.Article) entity.Article {
	if h.Lookup != nil {
		if full, ok := h.Lookup.Get(a.URL); ok {
			return full
		}
	}
	if full, ok := h.Svc.Get(a.URL); ok {
		return full
	}
	return a
}
