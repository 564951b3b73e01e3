// Package transcript holds finalized speech segments and the text rules applied to them.
package transcript

import "strings"

// Assemble joins recognized pieces with single spaces and trims the result.
func Assemble(pieces []string) string {
	if len(pieces) == 0 {
		return ""
	}

	joined := strings.Join(pieces, " ")
	return strings.Join(strings.Fields(joined), " ")
}

// Normalize prepares text for phrase matching.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ContainsPhrase reports whether text contains phrase after normalizing both.
//
// Matching is plain substring containment; it is not word-boundary aware and an
// empty phrase matches every text.
func ContainsPhrase(text string, phrase string) bool {
	return strings.Contains(Normalize(text), Normalize(phrase))
}
