package handler

import (
	"strings"

	"golang.org/x/net/html"
)

// stripTags drops every HTML tag, comment and doctype and keeps the text.
// Entities are left as written, so "a &lt; b" stays as typed.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
