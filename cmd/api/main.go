package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsreader/internal/app"
	"newsreader/internal/config"
	hhttp "newsreader/internal/handler/http"
	hconn "newsreader/internal/handler/http/connectivity"
	hfav "newsreader/internal/handler/http/favorite"
	hnews "newsreader/internal/handler/http/news"
	"newsreader/internal/handler/http/requestid"
	"newsreader/internal/observability/logging"
	"newsreader/internal/observability/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $"+config.PathEnv+")")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger := initLogger(cfg)

	shutdownTracing := tracing.Init()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to shut down tracing", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize app", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close app", slog.Any("error", err))
		}
	}()

	a.StartBackground(ctx)
	go func() {
		res := <-a.Initialize(ctx)
		logger.Info("initial load finished",
			slog.String("news_status", string(res.News.Status)),
			slog.String("news_origin", string(res.News.Origin)),
			slog.Int("articles", res.News.Articles),
			slog.Int("favorites", a.Favorites.Count()))
	}()

	handler := applyMiddleware(logger, cfg, setupRoutes(a, logger, getVersion()))
	runServer(ctx, cancel, logger, cfg.HTTP, handler)
}

// initLogger builds the process logger from the log section and installs it as default.
func initLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)
	return logger
}

// getVersion prefers $VERSION over the build-time version.
func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return version
}

// setupRoutes registers the API and operational endpoints.
func setupRoutes(a *app.App, logger *slog.Logger, version string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &hhttp.HealthHandler{DB: a.DB(), News: a.News, Version: version})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: a.DB(), News: a.News})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	hnews.Register(mux, a.News, a.Favorites, logger)
	hfav.Register(mux, a.Favorites, a.News, logger)
	hconn.Register(mux, a.Oracle())
	return mux
}

// applyMiddleware wraps the mux, outermost first:
// request ID → rate limit → recover → logging → body limit → tracing → metrics.
// Metrics must sit directly on the mux to see the matched route.
func applyMiddleware(logger *slog.Logger, cfg *config.Config, mux *http.ServeMux) http.Handler {
	var h http.Handler = mux
	h = hhttp.MetricsMiddleware(h)
	h = tracing.Middleware(h)
	h = hhttp.LimitRequestBody(cfg.HTTP.MaxBodyBytes)(h)
	h = hhttp.Logging(logger)(h)
	h = hhttp.Recover(logger)(h)

	if cfg.HTTP.RateLimitRPS > 0 {
		limiter := hhttp.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, 10*time.Minute)
		h = limiter.Limit(h)
		logger.Info("rate limiting enabled",
			slog.Float64("rps", cfg.HTTP.RateLimitRPS),
			slog.Int("burst", cfg.HTTP.RateLimitBurst))
	} else {
		logger.Warn("rate limiting is disabled")
	}

	return requestid.Middleware(h)
}

// runServer serves until SIGINT/SIGTERM, then drains in-flight requests.
func runServer(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, cfg config.HTTPConfig, handler http.Handler) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", getVersion()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("shutting down server...")
	case err := <-errCh:
		logger.Error("server failed", slog.Any("error", err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	// Background work is canceled only after in-flight requests have drained.
	cancel()
	logger.Info("server stopped")
}
