package visibility

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims, lowercases, and NFC-composes s so that labels and queries compare
// consistently regardless of how the text was entered.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Casers carry state; one per call keeps Normalize safe for concurrent callers.
	return norm.NFC.String(cases.Lower(language.Und).String(s))
}
