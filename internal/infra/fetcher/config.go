package fetcher

import (
	"fmt"
	"time"
)

// Config controls the full-text fetcher used by the article detail view.
type Config struct {
	// Enabled toggles the feature; when false no fetcher is wired.
	Enabled bool
	// Threshold is the cached content length, in characters, at or above which no fetch is made.
	Threshold int
	// Timeout bounds one request, redirects included.
	Timeout time.Duration
	// MaxBodySize is enforced while reading, not from Content-Length.
	MaxBodySize int64
	// MaxRedirects is checked per hop; every hop target is validated like the original URL.
	MaxRedirects int
	// DenyPrivateIPs rejects hosts resolving to loopback, private or link-local addresses.
	// Always true outside tests.
	DenyPrivateIPs bool
	UserAgent      string
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Threshold:      1500,
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "NewsReaderBot/1.0",
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}
