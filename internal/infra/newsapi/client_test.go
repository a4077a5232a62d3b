package newsapi_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsreader/internal/domain/entity"
	"newsreader/internal/infra/newsapi"
	"newsreader/internal/resilience/circuitbreaker"
	"newsreader/internal/resilience/retry"
)

const headlines = `{
  "status": "ok",
  "totalResults": 3,
  "articles": [
    {
      "source": {"id": "the-verge", "name": "The Verge"},
      "author": "A. Writer",
      "title": "Go 1.23 ships iterators",
      "description": "<p>Range over func</p>",
      "url": "https://www.theverge.com/go-123",
      "urlToImage": "https://cdn.example.com/go.png",
      "publishedAt": "2024-08-13T17:00:00Z",
      "content": "<p>The Go team   shipped <b>iterators</b>.</p> The release also… [+2345 chars]"
    },
    {
      "source": {"id": null, "name": "[Removed]"},
      "title": "[Removed]",
      "description": "[Removed]",
      "url": "https://removed.com",
      "urlToImage": null,
      "publishedAt": "1970-01-01T00:00:00Z",
      "content": "[Removed]"
    },
    {
      "source": {"id": null, "name": "Wire"},
      "title": "No content here",
      "description": "Only a description",
      "url": "https://wire.example.com/x",
      "urlToImage": null,
      "publishedAt": "not a date",
      "content": null
    }
  ]
}`

func noRetry() retry.Config {
	return retry.Config{MaxAttempts: 1}
}

func newClient(t *testing.T, url string, opts ...newsapi.Option) *newsapi.Client {
	t.Helper()
	cfg := newsapi.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = url
	cfg.RequestsPerSecond = 100
	opts = append([]newsapi.Option{newsapi.WithRetryConfig(noRetry())}, opts...)
	c, err := newsapi.NewClient(http.DefaultClient, cfg, opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := newsapi.NewClient(nil, newsapi.DefaultConfig())
	assert.ErrorIs(t, err, newsapi.ErrMissingAPIKey)
}

func TestFetchCategory_MapsArticles(t *testing.T) {
	var gotQuery, gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, headlines)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	got, err := c.FetchCategory(context.Background(), entity.CategoryTechnology)
	require.NoError(t, err)

	assert.Equal(t, "/top-headlines", gotPath)
	assert.Equal(t, "category=technology&country=us&pageSize=20", gotQuery)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, got, 2, "removed placeholder dropped")

	assert.Equal(t, entity.Article{
		Title:       "Go 1.23 ships iterators",
		ImageURL:    "https://cdn.example.com/go.png",
		Source:      "The Verge",
		PublishedAt: time.Date(2024, 8, 13, 17, 0, 0, 0, time.UTC),
		Content:     "The Go team shipped iterators. The release also",
		URL:         "https://www.theverge.com/go-123",
	}, got[0])

	assert.Equal(t, "Only a description", got[1].Content)
	assert.True(t, got[1].PublishedAt.IsZero())
	assert.False(t, got[1].HasImage())
}

func TestFetchCategory_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).FetchCategory(context.Background(), entity.CategoryHealth)

	var apiErr *newsapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "apiKeyInvalid", apiErr.Code)
}

func TestFetchCategory_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = fmt.Fprint(w, `{"status":"ok","totalResults":0,"articles":[]}`)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, newsapi.WithRetryConfig(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}))
	got, err := c.FetchCategory(context.Background(), entity.CategorySports)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchCategory_HTTPErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).FetchCategory(context.Background(), entity.CategorySports)

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestFetchCategory_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := circuitbreaker.New(circuitbreaker.Config{
		Name:             "newsapi-test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	})
	c := newClient(t, srv.URL, newsapi.WithCircuitBreaker(cb))

	for i := 0; i < 2; i++ {
		_, err := c.FetchCategory(context.Background(), entity.CategoryScience)
		require.Error(t, err)
	}
	_, err := c.FetchCategory(context.Background(), entity.CategoryScience)

	assert.True(t, cb.IsOpen())
	assert.ErrorContains(t, err, "circuit breaker is open")
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchCategory_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newClient(t, srv.URL).FetchCategory(ctx, entity.CategoryBusiness)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCleanContent(t *testing.T) {
	assert.Equal(t, "Breaking: rates cut", newsapi.CleanContent("<p>Breaking:  rates <em>cut</em></p>… [+812 chars]"))
	assert.Empty(t, newsapi.CleanContent(""))
}
