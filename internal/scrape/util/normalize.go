package util

import (
	"html"
	"strings"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// CleanHTMLText decodes HTML entities and then cleans whitespace.
func CleanHTMLText(s string) string {
	return CleanText(html.UnescapeString(s))
}
