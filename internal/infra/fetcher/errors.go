package fetcher

import "errors"

// Sentinel errors returned by FetchContent. Callers fall back to cached content on any of them.
var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrPrivateIP         = errors.New("URL resolves to a private address")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("content fetch timed out")
	ErrReadabilityFailed = errors.New("no readable content")
)
