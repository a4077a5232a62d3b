package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticle_Validate(t *testing.T) {
	ok := Article{Title: "Go 1.26 released", URL: "https://go.dev/blog/go1.26"}
	assert.NoError(t, ok.Validate())

	noTitle := ok
	noTitle.Title = "   "
	err := noTitle.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")

	badURL := ok
	badURL.URL = "not a url"
	assert.Error(t, badURL.Validate())
}

func TestArticle_MatchesTitle(t *testing.T) {
	a := Article{Title: "Rust and Go: A Comparison"}

	assert.True(t, a.MatchesTitle(""))
	assert.True(t, a.MatchesTitle("go"))
	assert.True(t, a.MatchesTitle("RUST AND"))
	assert.True(t, a.MatchesTitle("  comparison "))
	assert.False(t, a.MatchesTitle("python"))
}

func TestArticle_HasImage(t *testing.T) {
	assert.False(t, Article{}.HasImage())
	assert.False(t, Article{ImageURL: "  "}.HasImage())
	assert.True(t, Article{ImageURL: "https://img.example.com/a.png"}.HasImage())
}

func TestArticle_JSONShape(t *testing.T) {
	a := Article{
		Title:       "t",
		Source:      "Example",
		PublishedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Category:    CategoryHealth,
		URL:         "https://example.com/a",
	}

	b, err := json.Marshal(a)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "2024-01-02T03:04:05Z", m["publishedAt"])
	assert.Equal(t, "health", m["category"])
	assert.NotContains(t, m, "imageUrl", "empty image must be omitted")
	assert.NotContains(t, m, "content")
}
