// Package app assembles the news reader from its configuration.
//
// An App owns the two core services (the news aggregator and the favorites store)
// together with the infrastructure they run on: the key/value store, the remote news
// source, the connectivity oracle and the optional full-text fetcher. Both cmd/api and
// cmd/newsctl build one App and hand its services to their front ends.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"newsreader/internal/config"
	"newsreader/internal/domain/entity"
	"newsreader/internal/infra/adapter/persistence/memory"
	"newsreader/internal/infra/adapter/persistence/postgres"
	"newsreader/internal/infra/adapter/persistence/sqlite"
	"newsreader/internal/infra/connectivity"
	"newsreader/internal/infra/db"
	"newsreader/internal/infra/fetcher"
	"newsreader/internal/infra/newsapi"
	"newsreader/internal/infra/scraper"
	"newsreader/internal/repository"
	"newsreader/internal/usecase/favorite"
	"newsreader/internal/usecase/news"
)

// App holds the wired services. Build it with New and release it with Close.
type App struct {
	News      *news.Service
	Favorites *favorite.Service

	cfg     *config.Config
	logger  *slog.Logger
	store   repository.KeyValueStore
	db      *sql.DB
	source  news.CategorySource
	oracle  news.ConnectivityOracle
	monitor *connectivity.Monitor
	content news.ContentFetcher
	client  *http.Client

	stopOnce sync.Once
	stop     context.CancelFunc
	done     chan struct{}
}

// Option replaces a component New would otherwise build from the configuration.
type Option func(*App)

// WithStore uses store instead of opening the configured storage backend.
func WithStore(store repository.KeyValueStore) Option {
	return func(a *App) { a.store = store }
}

// WithSource uses source instead of the configured news source.
func WithSource(source news.CategorySource) Option {
	return func(a *App) { a.source = source }
}

// WithOracle uses oracle instead of the configured connectivity mode.
func WithOracle(oracle news.ConnectivityOracle) Option {
	return func(a *App) { a.oracle = oracle }
}

// WithContentFetcher uses f for detail expansion regardless of content_fetch.enabled.
func WithContentFetcher(f news.ContentFetcher) Option {
	return func(a *App) { a.content = f }
}

// WithHTTPClient sets the client shared by the news source and the connectivity probe.
func WithHTTPClient(c *http.Client) Option {
	return func(a *App) { a.client = c }
}

// WithLogger replaces slog.Default() for the app and its services.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New builds an App from a validated configuration. On error every resource
// opened so far is released.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	a := &App{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.store == nil {
		if a.store, err = a.openStore(ctx); err != nil {
			return nil, err
		}
	}
	if a.source == nil {
		if a.source, err = a.buildSource(); err != nil {
			return nil, err
		}
	}
	if a.oracle == nil {
		if a.oracle, err = a.buildOracle(); err != nil {
			return nil, err
		}
	}
	if a.content == nil && cfg.ContentFetch.Enabled {
		fc := fetcher.Config{
			Enabled:        true,
			Threshold:      cfg.ContentFetch.Threshold,
			Timeout:        cfg.ContentFetch.Timeout,
			MaxBodySize:    cfg.ContentFetch.MaxBodySize,
			MaxRedirects:   cfg.ContentFetch.MaxRedirects,
			DenyPrivateIPs: cfg.ContentFetch.DenyPrivateIPs,
		}
		if err = fc.Validate(); err != nil {
			return nil, fmt.Errorf("content fetcher: %w", err)
		}
		a.content = fetcher.NewReadabilityFetcher(fc)
	}

	newsOpts := []news.Option{news.WithLogger(a.logger)}
	if a.content != nil {
		newsOpts = append(newsOpts, news.WithContentFetcher(a.content))
	}
	a.News = news.NewService(a.source, a.store, a.oracle, news.Config{
		Categories:       cfg.Categories(),
		FetchTimeout:     cfg.News.FetchTimeout,
		ContentThreshold: cfg.ContentFetch.Threshold,
	}, newsOpts...)
	a.Favorites = favorite.NewService(a.store, favorite.WithLogger(a.logger))

	a.logger.Info("app initialized",
		slog.String("source", cfg.News.Source),
		slog.String("storage", cfg.Storage.Type),
		slog.String("connectivity", cfg.Connectivity.Mode),
		slog.Bool("content_fetch", a.content != nil),
		slog.Int("categories", len(cfg.News.Categories)))
	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.KeyValueStore, error) {
	switch a.cfg.Storage.Type {
	case config.StorageMemory:
		return memory.NewKVStore(), nil
	case config.StorageSQLite, config.StoragePostgres:
		dialect := db.Dialect(a.cfg.Storage.Type)
		conn, err := db.Open(ctx, dialect, a.cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.db = conn
		if err := db.MigrateUp(ctx, conn, dialect); err != nil {
			return nil, fmt.Errorf("migrate storage: %w", err)
		}
		if dialect == db.DialectPostgres {
			return postgres.NewKVStore(conn), nil
		}
		return sqlite.NewKVStore(conn), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", a.cfg.Storage.Type)
	}
}

func (a *App) buildSource() (news.CategorySource, error) {
	switch a.cfg.News.Source {
	case config.SourceNewsAPI:
		client := a.client
		if client == nil {
			client = &http.Client{Timeout: a.cfg.News.FetchTimeout}
		}
		c, err := newsapi.NewClient(client, newsapi.Config{
			APIKey:            a.cfg.NewsAPI.APIKey,
			BaseURL:           a.cfg.NewsAPI.BaseURL,
			Country:           a.cfg.NewsAPI.Country,
			PageSize:          a.cfg.NewsAPI.PageSize,
			RequestsPerSecond: a.cfg.NewsAPI.RequestsPerSecond,
			Burst:             a.cfg.NewsAPI.Burst,
		})
		if err != nil {
			return nil, fmt.Errorf("newsapi source: %w", err)
		}
		return c, nil
	case config.SourceRSS:
		client := a.client
		if client == nil {
			client = &http.Client{Timeout: a.cfg.RSS.Timeout}
		}
		return scraper.NewFeedSource(scraper.NewRSSFetcher(client), a.cfg.FeedsByCategory(), a.cfg.RSS.PageSize), nil
	default:
		return nil, fmt.Errorf("unsupported news source %q", a.cfg.News.Source)
	}
}

func (a *App) buildOracle() (news.ConnectivityOracle, error) {
	switch a.cfg.Connectivity.Mode {
	case config.ConnectivityOnline:
		return connectivity.Static(entity.StatusOnline), nil
	case config.ConnectivityOffline:
		return connectivity.Static(entity.StatusOffline), nil
	case config.ConnectivityAuto:
		client := a.client
		if client == nil {
			client = &http.Client{}
		}
		m, err := connectivity.NewMonitor(client, connectivity.MonitorConfig{
			ProbeURL:     a.cfg.Connectivity.ProbeURL,
			ProbeTimeout: a.cfg.Connectivity.ProbeTimeout,
			Interval:     a.cfg.Connectivity.Interval,
		})
		if err != nil {
			return nil, err
		}
		a.monitor = m
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported connectivity mode %q", a.cfg.Connectivity.Mode)
	}
}

// InitResult reports the outcome of Initialize.
type InitResult struct {
	News news.RefreshResult
	// FavoritesErr is the favorites load failure, if any. The favorites set is empty
	// in that case. After a malformed snapshot it stays empty; after a store read
	// failure the next Toggle reads again and refuses to write if that fails too.
	FavoritesErr error
}

// Initialize loads favorites and runs the first news refresh concurrently.
// It returns immediately; the channel receives one result and is then closed.
func (a *App) Initialize(ctx context.Context) <-chan InitResult {
	out := make(chan InitResult, 1)
	go func() {
		defer close(out)
		var res InitResult
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return a.Favorites.Load(gctx)
		})
		g.Go(func() error {
			res.News = <-a.News.Initialize(ctx)
			return nil
		})
		res.FavoritesErr = g.Wait()
		if res.FavoritesErr != nil {
			a.logger.Warn("favorites load failed",
				slog.Any("error", res.FavoritesErr))
		}
		out <- res
	}()
	return out
}

// Oracle returns the connectivity oracle the aggregator consults.
func (a *App) Oracle() news.ConnectivityOracle {
	return a.oracle
}

// Monitor returns the connectivity monitor, or nil when the mode is not auto
// or an oracle was injected.
func (a *App) Monitor() *connectivity.Monitor {
	return a.monitor
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config {
	return a.cfg
}

// StartBackground starts the connectivity monitor loop, if there is one.
// It stops when ctx is canceled or Close is called.
func (a *App) StartBackground(ctx context.Context) {
	if a.monitor == nil || a.done != nil {
		return
	}
	ctx, a.stop = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		a.monitor.Run(ctx)
	}()
}

// Ping checks the storage backend. Memory storage always succeeds.
func (a *App) Ping(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.PingContext(ctx)
}

// DB returns the SQL handle behind the store, or nil for memory storage.
func (a *App) DB() *sql.DB {
	return a.db
}

// Close stops background work and closes the database. It is safe to call more than once.
func (a *App) Close() error {
	var err error
	a.stopOnce.Do(func() {
		if a.stop != nil {
			a.stop()
			<-a.done
		}
		if a.db != nil {
			if cerr := a.db.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
			}
		}
	})
	return err
}
