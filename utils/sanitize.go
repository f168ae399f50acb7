package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks, keeping safe formatting.
func Sanitize(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}

// SanitizePlain strips all markup, for single-line fields such as titles and nicknames.
func SanitizePlain(input string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(input)))
}
