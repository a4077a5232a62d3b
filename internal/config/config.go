// Package config loads the newsreader configuration.
//
// Values are resolved in three layers: built-in defaults, an optional YAML file,
// then environment variables. Environment parsing fails open (a bad value logs a
// warning and keeps the previous layer); Validate reports everything that is still
// wrong in one error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"newsreader/internal/domain/entity"
	"newsreader/internal/observability/logging"
	envcfg "newsreader/pkg/config"
)

// PathEnv names the variable consulted when no --config flag is given.
const PathEnv = "NEWSREADER_CONFIG"

// Source types.
const (
	SourceNewsAPI = "newsapi"
	SourceRSS     = "rss"
)

// Storage types.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Connectivity modes.
const (
	ConnectivityAuto    = "auto"
	ConnectivityOnline  = "online"
	ConnectivityOffline = "offline"
)

// Config is the root configuration.
type Config struct {
	News         NewsConfig         `yaml:"news"`
	NewsAPI      NewsAPIConfig      `yaml:"newsapi"`
	RSS          RSSConfig          `yaml:"rss"`
	Storage      StorageConfig      `yaml:"storage"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	ContentFetch ContentFetchConfig `yaml:"content_fetch"`
	HTTP         HTTPConfig         `yaml:"http"`
	Log          LogConfig          `yaml:"log"`
}

// NewsConfig selects what the aggregator fetches.
type NewsConfig struct {
	// Categories are fetched in this order. Fixed for the life of the process.
	Categories   []string      `yaml:"categories"`
	Source       string        `yaml:"source"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

type NewsAPIConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Country           string  `yaml:"country"`
	PageSize          int     `yaml:"page_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type RSSConfig struct {
	// Feeds maps a category to its feed URLs.
	Feeds    map[string][]string `yaml:"feeds"`
	PageSize int                 `yaml:"page_size"`
	Timeout  time.Duration       `yaml:"timeout"`
}

type StorageConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

type ConnectivityConfig struct {
	Mode         string        `yaml:"mode"`
	ProbeURL     string        `yaml:"probe_url"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	Interval     time.Duration `yaml:"interval"`
}

type ContentFetchConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Threshold      int           `yaml:"threshold"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxBodySize    int64         `yaml:"max_body_size"`
	MaxRedirects   int           `yaml:"max_redirects"`
	DenyPrivateIPs bool          `yaml:"deny_private_ips"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		News: NewsConfig{
			Categories:   categoryStrings(entity.DefaultCategories()),
			Source:       SourceNewsAPI,
			FetchTimeout: 10 * time.Second,
		},
		NewsAPI: NewsAPIConfig{
			BaseURL:           "https://newsapi.org/v2",
			Country:           "us",
			PageSize:          20,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		RSS: RSSConfig{
			Feeds: map[string][]string{
				"business":      {"https://feeds.bbci.co.uk/news/business/rss.xml"},
				"entertainment": {"https://feeds.bbci.co.uk/news/entertainment_and_arts/rss.xml"},
				"general":       {"https://feeds.bbci.co.uk/news/rss.xml"},
				"health":        {"https://feeds.bbci.co.uk/news/health/rss.xml"},
				"science":       {"https://feeds.bbci.co.uk/news/science_and_environment/rss.xml"},
				"sports":        {"https://feeds.bbci.co.uk/sport/rss.xml"},
				"technology":    {"https://feeds.bbci.co.uk/news/technology/rss.xml"},
			},
			PageSize: 20,
			Timeout:  15 * time.Second,
		},
		Storage: StorageConfig{
			Type: StorageSQLite,
			DSN:  "newsreader.db",
		},
		Connectivity: ConnectivityConfig{
			Mode:         ConnectivityAuto,
			ProbeURL:     "https://newsapi.org",
			ProbeTimeout: 3 * time.Second,
			Interval:     30 * time.Second,
		},
		ContentFetch: ContentFetchConfig{
			Enabled:        true,
			Threshold:      1500,
			Timeout:        10 * time.Second,
			MaxBodySize:    10 * 1024 * 1024,
			MaxRedirects:   5,
			DenyPrivateIPs: true,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
			RateLimitRPS:    20,
			RateLimitBurst:  40,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ResolvePath returns flagValue, or $NEWSREADER_CONFIG when the flag is empty.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(PathEnv)
}

func (c *Config) mergeFile(path string) error {
	// #nosec G304 -- path comes from a CLI flag or the environment, not request input
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.News.Categories = envcfg.GetEnvStringList("NEWS_CATEGORIES", c.News.Categories)
	c.News.Source = envcfg.GetEnvString("NEWS_SOURCE", c.News.Source)
	c.News.FetchTimeout = envcfg.GetEnvDuration("NEWS_FETCH_TIMEOUT", c.News.FetchTimeout)

	c.NewsAPI.APIKey = envcfg.GetEnvString("NEWSAPI_KEY", c.NewsAPI.APIKey)
	c.NewsAPI.BaseURL = envcfg.GetEnvString("NEWSAPI_BASE_URL", c.NewsAPI.BaseURL)
	c.NewsAPI.Country = envcfg.GetEnvString("NEWSAPI_COUNTRY", c.NewsAPI.Country)
	c.NewsAPI.PageSize = envcfg.GetEnvInt("NEWSAPI_PAGE_SIZE", c.NewsAPI.PageSize)
	c.NewsAPI.RequestsPerSecond = envcfg.GetEnvFloat64("NEWSAPI_RPS", c.NewsAPI.RequestsPerSecond)

	c.Storage.Type = envcfg.GetEnvString("STORAGE_TYPE", c.Storage.Type)
	c.Storage.DSN = envcfg.GetEnvString("STORAGE_DSN", c.Storage.DSN)

	c.Connectivity.Mode = envcfg.GetEnvString("CONNECTIVITY_MODE", c.Connectivity.Mode)
	c.Connectivity.ProbeURL = envcfg.GetEnvString("CONNECTIVITY_PROBE_URL", c.Connectivity.ProbeURL)

	c.ContentFetch.Enabled = envcfg.GetEnvBool("CONTENT_FETCH_ENABLED", c.ContentFetch.Enabled)
	c.ContentFetch.Threshold = envcfg.GetEnvInt("CONTENT_FETCH_THRESHOLD", c.ContentFetch.Threshold)

	c.HTTP.Addr = envcfg.GetEnvString("HTTP_ADDR", c.HTTP.Addr)

	c.Log.Level = envcfg.GetEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envcfg.GetEnvString("LOG_FORMAT", c.Log.Format)
}

// Validate returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	positive := func(name string, d time.Duration) {
		if err := envcfg.ValidatePositiveDuration(d); err != nil {
			add("%s: %w", name, err)
		}
	}

	categories, err := entity.ParseCategories(c.News.Categories)
	switch {
	case err != nil:
		add("news.categories: %w", err)
	case len(categories) == 0:
		add("news.categories: at least one category is required")
	}
	positive("news.fetch_timeout", c.News.FetchTimeout)

	switch c.News.Source {
	case SourceNewsAPI:
		if strings.TrimSpace(c.NewsAPI.APIKey) == "" {
			add("newsapi.api_key: required when news.source is %q (set NEWSAPI_KEY)", SourceNewsAPI)
		}
		if err := validHTTPURL(c.NewsAPI.BaseURL); err != nil {
			add("newsapi.base_url: %w", err)
		}
		if c.NewsAPI.PageSize < 1 || c.NewsAPI.PageSize > 100 {
			add("newsapi.page_size: must be between 1 and 100, got %d", c.NewsAPI.PageSize)
		}
	case SourceRSS:
		for _, cat := range categories {
			if len(c.RSS.Feeds[string(cat)]) == 0 {
				add("rss.feeds: no feed configured for category %q", cat)
			}
		}
		for cat, urls := range c.RSS.Feeds {
			for _, u := range urls {
				if err := validHTTPURL(u); err != nil {
					add("rss.feeds[%s]: %w", cat, err)
				}
			}
		}
		positive("rss.timeout", c.RSS.Timeout)
	default:
		add("news.source: must be %q or %q, got %q", SourceNewsAPI, SourceRSS, c.News.Source)
	}

	switch c.Storage.Type {
	case StorageSQLite, StoragePostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			add("storage.dsn: required for storage type %q", c.Storage.Type)
		}
	case StorageMemory:
	default:
		add("storage.type: must be sqlite, postgres or memory, got %q", c.Storage.Type)
	}

	switch c.Connectivity.Mode {
	case ConnectivityAuto:
		if err := validHTTPURL(c.Connectivity.ProbeURL); err != nil {
			add("connectivity.probe_url: %w", err)
		}
		positive("connectivity.probe_timeout", c.Connectivity.ProbeTimeout)
		if err := envcfg.ValidateDurationRange(c.Connectivity.Interval, time.Second, time.Hour); err != nil {
			add("connectivity.interval: %w", err)
		}
	case ConnectivityOnline, ConnectivityOffline:
	default:
		add("connectivity.mode: must be auto, online or offline, got %q", c.Connectivity.Mode)
	}

	if c.ContentFetch.Enabled {
		if c.ContentFetch.Threshold < 0 {
			add("content_fetch.threshold: must be non-negative, got %d", c.ContentFetch.Threshold)
		}
		positive("content_fetch.timeout", c.ContentFetch.Timeout)
	}

	if c.HTTP.Addr == "" {
		add("http.addr: required")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		add("http.max_body_bytes: must be positive, got %d", c.HTTP.MaxBodyBytes)
	}

	if !logging.ValidLevel(c.Log.Level) {
		add("log.level: unknown level %q", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "text" {
		add("log.format: must be json or text, got %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// Categories returns the configured categories. Call only on a validated Config.
func (c *Config) Categories() []entity.Category {
	categories, _ := entity.ParseCategories(c.News.Categories)
	return categories
}

// FeedsByCategory returns the RSS feeds keyed by category.
func (c *Config) FeedsByCategory() map[entity.Category][]string {
	out := make(map[entity.Category][]string, len(c.RSS.Feeds))
	for k, v := range c.RSS.Feeds {
		out[entity.Category(strings.ToLower(strings.TrimSpace(k)))] = v
	}
	return out
}

func validHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}

func categoryStrings(cs []entity.Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
