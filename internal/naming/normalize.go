// Package naming decides whether a typed guess names a catalog record.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases raw, folds diacritics and keeps only ASCII letters and
// digits. Whitespace is removed, not collapsed.
func Normalize(raw string) string {
	lowered := strings.ToLower(raw)
	// A chain carries its own buffers, so each call builds one.
	foldMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(foldMarks, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
