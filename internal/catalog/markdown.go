package catalog

import (
	"bytes"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
	bodyPolicy   *bluemonday.Policy
)

func renderer() (goldmark.Markdown, *bluemonday.Policy) {
	markdownOnce.Do(func() {
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

		bodyPolicy = bluemonday.UGCPolicy()
		bodyPolicy.AllowElements("figure", "figcaption")
		bodyPolicy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "code")
		bodyPolicy.RequireNoFollowOnLinks(true)
	})
	return markdown, bodyPolicy
}

// renderMarkdown converts a section body to sanitized HTML. goldmark already escapes raw HTML
// unless told otherwise; the policy is a second gate for links and attributes.
func renderMarkdown(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	md, policy := renderer()
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(policy.Sanitize(buf.String())), nil
}
