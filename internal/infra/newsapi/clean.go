package newsapi

import "newsreader/internal/utils/text"

// removedMarker is what NewsAPI puts in every field of a withdrawn article.
const removedMarker = "[Removed]"

// CleanContent converts an HTML fragment to plain text and strips the free-tier
// truncation marker.
func CleanContent(s string) string {
	return text.StripTruncationMarker(text.PlainText(s))
}
