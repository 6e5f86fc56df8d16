package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics strips combining marks so "Cumpleaños" and "Cumpleanos"
// compare equal. Used when deriving document keys from human-entered titles.
func FoldDiacritics(value string) string {
	folded, _, err := transform.String(foldTransformer, value)
	if err != nil {
		return value
	}
	return folded
}

// CanonicalKey folds, uppercases, and squeezes a human-entered title into a
// stable document key segment.
func CanonicalKey(value string) string {
	folded := FoldDiacritics(strings.TrimSpace(value))
	folded = strings.ToUpper(folded)
	var b strings.Builder
	lastSep := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep && b.Len() > 0 {
				b.WriteByte('-')
				lastSep = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
