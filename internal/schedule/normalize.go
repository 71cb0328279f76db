package schedule

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Admin-entered weekday names arrive in Spanish or English, with or without
// accents ("Miércoles", "miercoles", "Wednesday"). Comparison happens in one
// place, on the diacritic-stripped lower-cased form.
var weekdayAliases = map[string]string{
	"lunes":     "monday",
	"martes":    "tuesday",
	"miercoles": "wednesday",
	"jueves":    "thursday",
	"viernes":   "friday",
	"sabado":    "saturday",
	"domingo":   "sunday",
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeWeekday returns the canonical English lower-case weekday name for
// any supported spelling. Unrecognized input is returned stripped and
// lower-cased so equal spellings still compare equal.
func NormalizeWeekday(name string) string {
	stripped, _, err := transform.String(stripDiacritics, strings.TrimSpace(name))
	if err != nil {
		stripped = name
	}
	lowered := strings.ToLower(stripped)
	if canonical, ok := weekdayAliases[lowered]; ok {
		return canonical
	}
	return lowered
}
