// Package slug turns titles into URL slugs and keeps them unique per table.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var polishReplacer = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n", "ó", "o", "ś", "s", "ź", "z", "ż", "z",
	"Ą", "A", "Ć", "C", "Ę", "E", "Ł", "L", "Ń", "N", "Ó", "O", "Ś", "S", "Ź", "Z", "Ż", "Z",
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]+`)
	hyphenRuns = regexp.MustCompile(`-{2,}`)
)

// Generate returns the slug for text. The result only contains [a-z0-9-],
// never starts or ends with a hyphen and is empty when text has no letters
// or digits left after folding.
func Generate(text string) string {
	s := polishReplacer.Replace(text)
	s = foldASCII(s)
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return hyphenRuns.ReplaceAllString(s, "-")
}

// foldASCII decomposes text and drops everything outside ASCII.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, s)
	}
	return out
}
