package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// French connective words that carry no matching signal.
var connectives = map[string]struct{}{
	"de": {}, "et": {}, "aux": {}, "pour": {}, "avec": {}, "sur": {}, "au": {},
}

// Normalize canonicalizes free text: trim, lowercase, strip diacritics,
// collapse runs of whitespace. Idempotent.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// NFD + drop combining marks + NFC == accent folding
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}

// FilterMeaningful drops connective words, preserving order. Empty input
// returns empty output.
func FilterMeaningful(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, skip := connectives[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}
