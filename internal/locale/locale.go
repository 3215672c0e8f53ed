// Package locale formats dates and counts for the Polish site.
package locale

import (
	"fmt"
	"time"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

const (
	HTMLLang = "pl"
	OGLocale = "pl_PL"
)

// genitive month names, as used after a day number.
var months = [...]string{
	"stycznia", "lutego", "marca", "kwietnia", "maja", "czerwca",
	"lipca", "sierpnia", "września", "października", "listopada", "grudnia",
}

// Preference describes how pages declare their language.
type Preference struct {
	Language string
	Locale   string
	HTMLLang string
}

// Default is the only language the site is published in.
func Default() Preference {
	return Preference{Language: language.Polish.String(), Locale: OGLocale, HTMLLang: HTMLLang}
}

// FormatDate renders t as "5 marca 2025" in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

// Plural picks the Polish form for n: one (1), few (2-4, 22-24...) or
// many (0, 5-21, 25...).
func Plural(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	switch plural.Cardinal.MatchPlural(language.Polish, n, 0, 0, 0, 0) {
	case plural.One:
		return one
	case plural.Few:
		return few
	default:
		return many
	}
}

// CountNoun formats "3 komentarze" style phrases.
func CountNoun(n int, one, few, many string) string {
	return fmt.Sprintf("%d %s", n, Plural(n, one, few, many))
}
