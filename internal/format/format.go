// Package format renders numbers for display in the configured locale.
package format

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Lang parses a BCP 47 tag such as "en" or "de-CH". Unparseable input yields English.
func Lang(raw string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil || tag == language.Und {
		return language.English
	}
	return tag
}

// Count formats n with the digit grouping of lang, e.g. 12345 -> "12,345" in English and
// "12.345" in German.
func Count(lang language.Tag, n int64) string {
	return message.NewPrinter(lang).Sprintf("%d", n)
}
