package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"newsreader/internal/domain/entity"
	"newsreader/internal/observability/metrics"
	"newsreader/internal/observability/tracing"
	"newsreader/internal/repository"
	"newsreader/internal/resilience/retry"
)

// Config controls the aggregator.
type Config struct {
	// Categories are fetched concurrently on every refresh, in this order before sorting.
	Categories []entity.Category
	// FetchTimeout bounds each category fetch independently.
	FetchTimeout time.Duration
	// RefreshTimeout bounds a whole refresh run, which no single caller can cancel.
	RefreshTimeout time.Duration
	// ContentThreshold is the content length below which Expand fetches the full text.
	ContentThreshold int
	// StoreRetry governs snapshot writes.
	StoreRetry retry.Config
}

// DefaultConfig returns the aggregator defaults: the four default categories and a 10s fetch timeout.
func DefaultConfig() Config {
	return Config{
		Categories:       entity.DefaultCategories(),
		FetchTimeout:     10 * time.Second,
		RefreshTimeout:   30 * time.Second,
		ContentThreshold: 1500,
		StoreRetry:       retry.StoreConfig(),
	}
}

// Option customizes a Service.
type Option func(*Service)

// WithContentFetcher enables full-text expansion in Expand.
func WithContentFetcher(f ContentFetcher) Option {
	return func(s *Service) { s.content = f }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service is the news aggregator. It is the only writer of the news cache.
type Service struct {
	source  CategorySource
	store   repository.KeyValueStore
	oracle  ConnectivityOracle
	content ContentFetcher
	cfg     Config
	logger  *slog.Logger

	mu       sync.RWMutex
	articles []entity.Article
	hasCache bool
	last     *RefreshResult

	group    singleflight.Group
	initOnce sync.Once
	ready    chan struct{}
}

// NewService wires the aggregator. Zero-valued fields of cfg fall back to DefaultConfig.
func NewService(
	source CategorySource,
	store repository.KeyValueStore,
	oracle ConnectivityOracle,
	cfg Config,
	opts ...Option,
) *Service {
	def := DefaultConfig()
	if len(cfg.Categories) == 0 {
		cfg.Categories = def.Categories
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = max(def.RefreshTimeout, 2*cfg.FetchTimeout)
	}
	if cfg.ContentThreshold <= 0 {
		cfg.ContentThreshold = def.ContentThreshold
	}
	if cfg.StoreRetry.MaxAttempts == 0 {
		cfg.StoreRetry = def.StoreRetry
	}
	cfg.Categories = slices.Clone(cfg.Categories)

	s := &Service{
		source: source,
		store:  store,
		oracle: oracle,
		cfg:    cfg,
		logger: slog.Default(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh rebuilds the news cache.
//
// When the oracle reports online, every configured category is fetched concurrently,
// each under its own timeout. If all succeed, the results are flattened, stably sorted
// by PublishedAt descending, swapped into the cache, and persisted as a snapshot.
// If any category fails, or the oracle reports offline, the cache falls back to the
// in-memory copy, then to the persisted snapshot, and otherwise stays empty.
//
// Refresh never returns an error. Overlapping calls share one execution, which runs
// detached from every caller's cancellation under RefreshTimeout. A caller whose ctx
// ends first stops waiting and gets the current cache state with ErrRefreshAbandoned;
// the run itself still completes for the others.
func (s *Service) Refresh(ctx context.Context) RefreshResult {
	ch := s.group.DoChan("refresh", func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RefreshTimeout)
		defer cancel()
		return s.refresh(runCtx), nil
	})
	select {
	case r := <-ch:
		res := r.Val.(RefreshResult)
		res.Shared = r.Shared
		return res
	case <-ctx.Done():
		return s.abandoned(ctx.Err())
	}
}

// abandoned describes the cache as it is when a caller stops waiting on a refresh.
func (s *Service) abandoned(cause error) RefreshResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := RefreshResult{
		Status:    StatusEmpty,
		Origin:    OriginNone,
		StartedAt: time.Now().UTC(),
		FetchErr:  fmt.Errorf("%w: %w", ErrRefreshAbandoned, cause),
	}
	if s.hasCache {
		res.Status = StatusCached
		res.Origin = OriginMemory
		res.Articles = len(s.articles)
	}
	return res
}

func (s *Service) refresh(ctx context.Context) (res RefreshResult) {
	start := time.Now()
	res = RefreshResult{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		Origin:    OriginNone,
	}

	ctx, span := tracing.StartSpan(ctx, "news.Refresh",
		attribute.String("run_id", res.RunID),
		attribute.Int("categories", len(s.cfg.Categories)))
	defer span.End()

	defer func() {
		res.Duration = time.Since(start)
		s.finish(res)
		span.SetAttributes(
			attribute.String("status", string(res.Status)),
			attribute.String("origin", string(res.Origin)),
			attribute.Int("articles", res.Articles))
	}()

	res.Connectivity = s.oracle.CurrentStatus(ctx)
	if res.Connectivity.Online() {
		articles, err := s.fetchAll(ctx)
		if err == nil && ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ErrRefreshAbandoned, ctx.Err())
		}
		if err == nil {
			s.swap(articles)
			res.Status = StatusFresh
			res.Origin = OriginNetwork
			res.Articles = len(articles)
			res.PersistErr = s.persistSnapshot(ctx, articles)
			return res
		}
		res.FetchErr = err
		tracing.RecordError(span, err)
		s.logger.Warn("news fetch failed, falling back to cache",
			slog.String("run_id", res.RunID),
			slog.Any("error", err))
	}

	s.fallback(ctx, &res)
	return res
}

// fetchAll fetches every category concurrently. Any failure fails the whole fetch.
func (s *Service) fetchAll(ctx context.Context) ([]entity.Article, error) {
	if len(s.cfg.Categories) == 0 {
		return nil, ErrNoCategories
	}

	perCategory := make([][]entity.Article, len(s.cfg.Categories))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, category := range s.cfg.Categories {
		eg.Go(func() error {
			items, err := s.fetchCategory(egCtx, category)
			if err != nil {
				return err
			}
			perCategory[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, items := range perCategory {
		total += len(items)
	}
	flat := make([]entity.Article, 0, total)
	for _, items := range perCategory {
		flat = append(flat, items...)
	}

	slices.SortStableFunc(flat, func(a, b entity.Article) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	return flat, nil
}

// fetchCategory fetches one category under FetchTimeout and tags every article with it.
// The requested category wins over any value the source supplied.
func (s *Service) fetchCategory(ctx context.Context, category entity.Category) ([]entity.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "news.FetchCategory",
		attribute.String("category", string(category)))
	defer span.End()

	start := time.Now()
	items, err := s.source.FetchCategory(ctx, category)
	metrics.RecordCategoryFetch(string(category), time.Since(start), err)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("fetch category %s: %w", category, err)
	}

	tagged := make([]entity.Article, 0, len(items))
	for _, a := range items {
		if a.URL == "" || a.Title == "" {
			continue
		}
		a.Category = category
		tagged = append(tagged, a)
	}
	span.SetAttributes(attribute.Int("articles", len(tagged)))

	s.logger.Debug("category fetched",
		slog.String("category", string(category)),
		slog.Int("articles", len(tagged)),
		slog.Duration("duration", time.Since(start)))
	return tagged, nil
}

// fallback keeps the in-memory cache when one exists, else restores the snapshot.
func (s *Service) fallback(ctx context.Context, res *RefreshResult) {
	s.mu.RLock()
	has, n := s.hasCache, len(s.articles)
	s.mu.RUnlock()

	if has {
		res.Status = StatusCached
		res.Origin = OriginMemory
		res.Articles = n
		return
	}

	articles, found, err := s.loadSnapshot(ctx)
	switch {
	case err != nil:
		res.CacheErr = err
		res.Status = StatusEmpty
		s.logger.Warn("news snapshot unavailable",
			slog.String("run_id", res.RunID),
			slog.Any("error", err))
	case !found:
		res.Status = StatusEmpty
	default:
		s.swap(articles)
		res.Status = StatusCached
		res.Origin = OriginSnapshot
		res.Articles = len(articles)
	}
}

// swap replaces the cache in one step; readers see either the old or the new list.
func (s *Service) swap(articles []entity.Article) {
	s.mu.Lock()
	s.articles = articles
	s.hasCache = true
	s.mu.Unlock()
}

func (s *Service) finish(res RefreshResult) {
	s.mu.Lock()
	s.last = &res
	cached := len(s.articles)
	s.mu.Unlock()

	metrics.RecordRefresh(string(res.Status), string(res.Origin), res.Duration, cached)
	s.logger.Info("news refresh completed",
		slog.String("run_id", res.RunID),
		slog.String("status", string(res.Status)),
		slog.String("origin", string(res.Origin)),
		slog.String("connectivity", string(res.Connectivity)),
		slog.Int("articles", res.Articles),
		slog.Bool("degraded", res.Degraded()),
		slog.Duration("duration", res.Duration))
}

// persistSnapshot writes the snapshot. The write outlives RefreshTimeout because the
// in-memory cache has already been swapped.
func (s *Service) persistSnapshot(ctx context.Context, articles []entity.Article) error {
	payload, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("encode news snapshot: %w", err)
	}

	safeCtx := context.WithoutCancel(ctx)
	err = retry.WithBackoff(safeCtx, s.cfg.StoreRetry, func() error {
		return s.store.Set(safeCtx, repository.KeyCachedNews, string(payload))
	})
	if err != nil {
		metrics.RecordStoreWriteFailure(repository.KeyCachedNews)
		s.logger.Warn("failed to persist news snapshot",
			slog.Int("articles", len(articles)),
			slog.Any("error", err))
		return fmt.Errorf("persist news snapshot: %w", err)
	}
	return nil
}

// loadSnapshot reads the persisted snapshot. found is false when none was ever written.
func (s *Service) loadSnapshot(ctx context.Context) ([]entity.Article, bool, error) {
	raw, ok, err := s.store.Get(ctx, repository.KeyCachedNews)
	if err != nil {
		return nil, false, fmt.Errorf("read news snapshot: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var articles []entity.Article
	if err := json.Unmarshal([]byte(raw), &articles); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	if articles == nil {
		articles = []entity.Article{}
	}
	return articles, true, nil
}

// ClearCache drops the in-memory cache and deletes the persisted snapshot.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.store.Delete(ctx, repository.KeyCachedNews); err != nil {
		return fmt.Errorf("delete news snapshot: %w", err)
	}
	s.mu.Lock()
	s.articles = nil
	s.hasCache = false
	s.mu.Unlock()
	metrics.CachedArticles.Set(0)
	return nil
}

// Initialize runs the first refresh exactly once, in the background, and returns a
// channel that receives its result. Later calls receive the result of that same first
// refresh once it completes. Ready is closed at the same moment.
func (s *Service) Initialize(ctx context.Context) <-chan RefreshResult {
	out := make(chan RefreshResult, 1)
	first := false
	s.initOnce.Do(func() {
		first = true
		go func() {
			res := s.Refresh(ctx)
			close(s.ready)
			out <- res
			close(out)
		}()
	})
	if !first {
		go func() {
			<-s.ready
			res, _ := s.LastResult()
			out <- res
			close(out)
		}()
	}
	return out
}

// Ready is closed once the first refresh started by Initialize has completed.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}
