// Package text provides small text helpers shared by the news sources and the aggregator.
package text

// CountRunes counts Unicode characters rather than bytes, so content-length
// thresholds behave the same for ASCII and multi-byte scripts.
//
//	CountRunes("hello")      // 5
//	CountRunes("こんにちは")  // 5
func CountRunes(text string) int {
	return len([]rune(text))
}
