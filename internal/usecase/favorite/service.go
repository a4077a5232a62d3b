package favorite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"newsreader/internal/domain/entity"
	"newsreader/internal/observability/metrics"
	"newsreader/internal/repository"
	"newsreader/internal/resilience/retry"
)

// ToggleResult reports the membership of the toggled article after the call.
type ToggleResult struct {
	Favorited bool `json:"favorited"`
	Count     int  `json:"count"`
}

// Service owns the favorites set. All mutations go through Toggle.
type Service struct {
	store  repository.KeyValueStore
	retry  retry.Config
	logger *slog.Logger

	mu     sync.RWMutex
	items  []entity.Article
	loaded bool
}

// Option customizes a Service.
type Option func(*Service)

// WithRetry overrides the store write retry profile.
func WithRetry(cfg retry.Config) Option {
	return func(s *Service) { s.retry = cfg }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService returns an unloaded favorites store. Call Load at startup; Toggle loads lazily
// if that has not happened yet.
func NewService(store repository.KeyValueStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		retry:  retry.StoreConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted set, replacing the in-memory one.
// An absent key yields an empty set. A malformed value yields an empty set and
// ErrMalformedSnapshot; the set counts as loaded either way.
// A store read failure also leaves the set empty but not loaded, so the next Toggle
// retries the read instead of overwriting what is stored.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Service) loadLocked(ctx context.Context) error {
	s.items = nil
	s.loaded = false
	defer func() { metrics.UpdateFavoritesTotal(len(s.items)) }()

	raw, ok, err := s.store.Get(ctx, repository.KeyFavorites)
	if err != nil {
		s.logger.Warn("failed to read favorites", slog.Any("error", err))
		return fmt.Errorf("Load: Get: %w", err)
	}
	s.loaded = true
	if !ok {
		return nil
	}

	var items []entity.Article
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("stored favorites are malformed, starting empty", slog.Any("error", err))
		return fmt.Errorf("Load: %w: %w", ErrMalformedSnapshot, err)
	}

	// A hand-edited or legacy snapshot may carry duplicates; keep the first.
	seen := make(map[string]struct{}, len(items))
	for _, a := range items {
		if _, dup := seen[a.URL]; dup || a.URL == "" {
			continue
		}
		seen[a.URL] = struct{}{}
		s.items = append(s.items, a)
	}
	return nil
}

// Toggle removes the article with a.URL if present, otherwise validates and appends a.
// Removal matches on URL alone. The new set is persisted before Toggle returns. If
// persisting fails the in-memory set keeps the new state and the error wraps
// ErrNotPersisted. If the set was never read successfully, Toggle reads it first and
// fails with ErrNotLoaded, changing nothing, when the store cannot be read.
func (s *Service) Toggle(ctx context.Context, a entity.Article) (ToggleResult, error) {
	a.URL = strings.TrimSpace(a.URL)
	if a.URL == "" {
		return ToggleResult{}, fmt.Errorf("Toggle: %w", &entity.ValidationError{Field: "url", Message: "URL is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.loadLocked(ctx); err != nil && !errors.Is(err, ErrMalformedSnapshot) {
			return ToggleResult{}, fmt.Errorf("Toggle: %w: %w", ErrNotLoaded, err)
		}
	}

	idx := slices.IndexFunc(s.items, func(x entity.Article) bool { return x.URL == a.URL })
	added := idx < 0
	if added {
		if err := a.Validate(); err != nil {
			return ToggleResult{}, fmt.Errorf("Toggle: %w", err)
		}
		s.items = append(s.items, a)
	} else {
		s.items = slices.Delete(s.items, idx, idx+1)
	}
	res := ToggleResult{Favorited: added, Count: len(s.items)}
	metrics.RecordFavoriteToggle(added, res.Count)

	if err := s.persistLocked(ctx); err != nil {
		metrics.RecordStoreWriteFailure(repository.KeyFavorites)
		s.logger.Warn("failed to persist favorites",
			slog.String("url", a.URL),
			slog.Bool("favorited", added),
			slog.Any("error", err))
		return res, fmt.Errorf("Toggle: %w: %w", ErrNotPersisted, err)
	}

	s.logger.Info("favorite toggled",
		slog.String("url", a.URL),
		slog.Bool("favorited", added),
		slog.Int("count", res.Count))
	return res, nil
}

func (s *Service) persistLocked(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []entity.Article{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	return retry.WithBackoff(ctx, s.retry, func() error {
		return s.store.Set(ctx, repository.KeyFavorites, string(payload))
	})
}

// IsFavorited reports whether an article with url is in the set.
func (s *Service) IsFavorited(url string) bool {
	_, ok := s.Get(url)
	return ok
}

// Get returns the favorited article with url.
func (s *Service) Get(url string) (entity.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.items {
		if a.URL == url {
			return a, true
		}
	}
	return entity.Article{}, false
}

// List returns a copy of the set in insertion order.
func (s *Service) List() []entity.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Count returns the number of favorites.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
