package scraper_test

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
	"newsreader/internal/infra/scraper"
	"newsreader/internal/resilience/retry"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Tech Daily</title>
    <link>https://tech.example.com</link>
    <description>Tech news</description>
    <item>
      <title>Article 1</title>
      <link>https://tech.example.com/article1</link>
      <description><![CDATA[<p>Description <b>one</b></p>]]></description>
      <pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate>
      <enclosure url="https://img.example.com/1.jpg" type="image/jpeg" length="100"/>
    </item>
    <item>
      <title>Article 2</title>
      <link>https://tech.example.com/article2</link>
      <description>Description 2</description>
      <pubDate>Tue, 02 Jan 2024 00:00:00 +0000</pubDate>
      <media:thumbnail url="https://img.example.com/2.jpg"/>
    </item>
    <item>
      <title>No link</title>
      <description>dropped</description>
    </item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Health</title>
  <link href="https://health.example.com"/>
  <updated>2024-01-03T00:00:00Z</updated>
  <id>urn:feed</id>
  <entry>
    <title>Atom Article</title>
    <link href="https://health.example.com/a1"/>
    <id>urn:a1</id>
    <updated>2024-01-03T00:00:00Z</updated>
    <summary>Summary text</summary>
  </entry>
  <entry>
    <title>Duplicate of RSS</title>
    <link href="https://tech.example.com/article2"/>
    <id>urn:a2</id>
    <updated>2023-12-31T00:00:00Z</updated>
  </entry>
</feed>`

func serve(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = fmt.Fprint(w, body)
	}))
}

func fetcher() *scraper.RSSFetcher {
	return scraper.NewRSSFetcher(&http.Client{Timeout: 5 * time.Second}).
		WithRetryConfig(retry.Config{MaxAttempts: 1})
}

/* ───────── RSSFetcher ───────── */

func TestRSSFetcher_Fetch_RSS(t *testing.T) {
	srv := serve(rssFeed)
	defer srv.Close()

	items, err := fetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, items, 2, "item without link dropped")

	assert.Equal(t, entity.Article{
		Title:       "Article 1",
		ImageURL:    "https://img.example.com/1.jpg",
		Source:      "Tech Daily",
		PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Content:     "Description one",
		URL:         "https://tech.example.com/article1",
	}, items[0])
	assert.Equal(t, "https://img.example.com/2.jpg", items[1].ImageURL)
}

func TestRSSFetcher_Fetch_Atom(t *testing.T) {
	srv := serve(atomFeed)
	defer srv.Close()

	items, err := fetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Atom Article", items[0].Title)
	assert.Equal(t, "Atom Health", items[0].Source)
	assert.Equal(t, "Summary text", items[0].Content)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), items[0].PublishedAt)
	assert.False(t, items[0].HasImage())
}

func TestRSSFetcher_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := fetcher().Fetch(context.Background(), srv.URL)

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
}

func TestRSSFetcher_Fetch_InvalidXML(t *testing.T) {
	srv := serve("this is not a feed")
	defer srv.Close()

	_, err := fetcher().Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestRSSFetcher_Fetch_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, rssFeed)
	}))
	defer srv.Close()

	f := scraper.NewRSSFetcher(http.DefaultClient).WithRetryConfig(retry.Config{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	})
	items, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.EqualValues(t, 2, calls.Load())
}

/* ───────── FeedSource ───────── */

func TestFeedSource_MergesSortsAndDedupes(t *testing.T) {
	rss, atom := serve(rssFeed), serve(atomFeed)
	defer rss.Close()
	defer atom.Close()

	src := scraper.NewFeedSource(fetcher(), map[entity.Category][]string{
		entity.CategoryTechnology: {rss.URL, atom.URL},
	}, 0)

	got, err := src.FetchCategory(context.Background(), entity.CategoryTechnology)
	require.NoError(t, err)

	var urls []string
	for _, a := range got {
		urls = append(urls, a.URL)
	}
	assert.Equal(t, []string{
		"https://health.example.com/a1",
		"https://tech.example.com/article2",
		"https://tech.example.com/article1",
	}, urls)
}

func TestFeedSource_PageSize(t *testing.T) {
	rss := serve(rssFeed)
	defer rss.Close()

	src := scraper.NewFeedSource(fetcher(), map[entity.Category][]string{
		entity.CategoryTechnology: {rss.URL},
	}, 1)

	got, err := src.FetchCategory(context.Background(), entity.CategoryTechnology)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Article 2", got[0].Title)
}

func TestFeedSource_PartialFailureTolerated(t *testing.T) {
	rss := serve(rssFeed)
	defer rss.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer broken.Close()

	src := scraper.NewFeedSource(fetcher(), map[entity.Category][]string{
		entity.CategoryTechnology: {broken.URL, rss.URL},
	}, 0)

	got, err := src.FetchCategory(context.Background(), entity.CategoryTechnology)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFeedSource_AllFeedsFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer broken.Close()

	src := scraper.NewFeedSource(fetcher(), map[entity.Category][]string{
		entity.CategoryHealth: {broken.URL},
	}, 0)

	_, err := src.FetchCategory(context.Background(), entity.CategoryHealth)
	assert.ErrorContains(t, err, "all 1 feeds failed")
}

func TestFeedSource_UnknownCategory(t *testing.T) {
	src := scraper.NewFeedSource(fetcher(), nil, 0)

	_, err := src.FetchCategory(context.Background(), entity.CategorySports)
	assert.ErrorIs(t, err, scraper.ErrNoFeeds)
	assert.Empty(t, src.Categories())
}
