package text

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var truncationMarker = regexp.MustCompile(`\s*(…|\.\.\.)?\s*\[\+\d+ chars\]\s*$`)

// PlainText converts an HTML fragment to text and collapses runs of whitespace.
// Input without markup is only whitespace-normalized.
func PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	out := s
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			out = doc.Text()
		}
	}
	return strings.Join(strings.Fields(out), " ")
}

// StripTruncationMarker removes a trailing "… [+1234 chars]" suffix.
func StripTruncationMarker(s string) string {
	return strings.TrimSpace(truncationMarker.ReplaceAllString(s, ""))
}
