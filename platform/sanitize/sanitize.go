// Package sanitize cleans shopper-supplied text before it is stored or
// placed in a prompt.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	entities = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

// StripHTML removes tags, decodes common entities and strips again so
// encoded tags do not survive.
func StripHTML(s string) string {
	out := htmlTagRegex.ReplaceAllString(s, "")
	out = entities.Replace(out)
	out = htmlTagRegex.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// Text strips HTML and collapses runs of whitespace, newlines included.
func Text(s string) string {
	return whitespaceRegex.ReplaceAllString(StripHTML(s), " ")
}
