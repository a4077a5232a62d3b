// Package entity defines the core domain entities and validation logic for the news reader.
// It contains the fundamental value types such as Article and Category, along with
// their validation rules and domain-specific errors.
package entity

import (
	"strings"
	"time"
)

// Article is a single news item as presented to readers.
// URL is the identity key: two articles with the same URL are the same article.
type Article struct {
	Title       string    `json:"title"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    Category  `json:"category"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url"`
}

// HasImage reports whether the article carries a preview image.
func (a Article) HasImage() bool {
	return strings.TrimSpace(a.ImageURL) != ""
}

// Validate checks the fields a stored article must carry.
// Only the identity URL and the title are mandatory.
func (a Article) Validate() error {
	if err := ValidateURL(a.URL); err != nil {
		return err
	}
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return nil
}

// MatchesTitle reports whether the title contains query, ignoring case.
// An empty query matches every article.
func (a Article) MatchesTitle(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Title), strings.ToLower(query))
}
