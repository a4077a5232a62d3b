package news

import (
	"time"

	"newsreader/internal/domain/entity"
	"newsreader/internal/handler/http/respond"
	newsUC "newsreader/internal/usecase/news"
)

// DTO is an article as returned by the API, with its favorite flag.
type DTO struct {
	entity.Article
	Favorited bool `json:"favorited"`
}

// ListResponse is the body of GET /news.
type ListResponse struct {
	Articles []DTO `json:"articles"`
	Count    int   `json:"count"`
	// Refresh describes the refresh that produced the cache; absent before the first one.
	Refresh *RefreshDTO `json:"refresh,omitempty"`
}

// RefreshDTO is a RefreshResult with its absorbed errors rendered as sanitized strings.
type RefreshDTO struct {
	RunID        string                    `json:"runId"`
	Status       newsUC.Status             `json:"status"`
	Origin       newsUC.Origin             `json:"origin"`
	Connectivity entity.ConnectivityStatus `json:"connectivity"`
	Articles     int                       `json:"articles"`
	StartedAt    time.Time                 `json:"startedAt"`
	DurationMS   int64                     `json:"durationMs"`
	Shared       bool                      `json:"shared"`
	Degraded     bool                      `json:"degraded"`
	Warnings     []string                  `json:"warnings,omitempty"`
}

func toRefreshDTO(res newsUC.RefreshResult) RefreshDTO {
	dto := RefreshDTO{
		RunID:        res.RunID,
		Status:       res.Status,
		Origin:       res.Origin,
		Connectivity: res.Connectivity,
		Articles:     res.Articles,
		StartedAt:    res.StartedAt,
		DurationMS:   res.Duration.Milliseconds(),
		Shared:       res.Shared,
		Degraded:     res.Degraded(),
	}
	for _, err := range []error{res.FetchErr, res.CacheErr, res.PersistErr} {
		if err != nil {
			dto.Warnings = append(dto.Warnings, respond.SanitizeError(err))
		}
	}
	return dto
}

// CategoriesResponse is the body of GET /categories.
type CategoriesResponse struct {
	Categories []entity.Category `json:"categories"`
}
