// Package pronunciation holds the rules of the pronunciation challenges:
// reading normalization, attempt grading, tier locking and star scoring.
// Everything here is pure and storage independent.
package pronunciation

import (
	"strings"
	"unicode"
)

// stripped are the punctuation and separator runes ignored when comparing
// readings. Unicode whitespace (including the ideographic space U+3000) is
// dropped as well.
var stripped = map[rune]bool{
	'。': true,
	'．': true,
	'.': true,
	'、': true,
	',': true,
	'，': true,
	'!': true,
	'！': true,
	'?': true,
	'？': true,
}

// Normalize canonicalizes a transcript, reading or expected text so that
// they can be compared with ==.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if stripped[r] || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
