// Package testutil holds helpers shared by handler tests.
package testutil

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses a rendered page for selector assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// Hidden reports whether the first element matching selector carries the hidden attribute.
// A missing element fails the test.
func Hidden(t testing.TB, doc *goquery.Document, selector string) bool {
	t.Helper()

	sel := doc.Find(selector)
	if sel.Length() == 0 {
		t.Fatalf("no element matches %q", selector)
	}
	_, hidden := sel.First().Attr("hidden")
	return hidden
}
