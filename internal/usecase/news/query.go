package news

import (
	"slices"

	"newsreader/internal/domain/entity"
)

// Filter narrows the cache for display. The zero value matches every article.
type Filter struct {
	// Search is a case-insensitive substring of the title.
	Search string
	// Category restricts results to one category; "" or "all" matches any.
	Category entity.Category
	// RequireImage drops articles without an image.
	RequireImage bool
}

// Match reports whether a passes every criterion of f.
func (f Filter) Match(a entity.Article) bool {
	if f.RequireImage && !a.HasImage() {
		return false
	}
	if !a.Category.Matches(f.Category) {
		return false
	}
	return a.MatchesTitle(f.Search)
}

// Articles returns a copy of the current cache in cache order.
func (s *Service) Articles() []entity.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.articles)
}

// Query returns the cached articles matching f, preserving cache order.
func (s *Service) Query(f Filter) []entity.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// Get looks up a cached article by URL. When the same URL was returned under more than
// one category, the first in cache order wins.
func (s *Service) Get(url string) (entity.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.articles {
		if a.URL == url {
			return a, true
		}
	}
	return entity.Article{}, false
}

// Categories returns the configured categories in fetch order.
func (s *Service) Categories() []entity.Category {
	return slices.Clone(s.cfg.Categories)
}

// LastResult returns the most recent refresh result, if any refresh has completed.
func (s *Service) LastResult() (RefreshResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return RefreshResult{}, false
	}
	return *s.last, true
}
