// internal/app/system/sanitize/sanitize.go

// Package sanitize strips markup from user-entered text before it is
// stored. Chat messages and profile fields are rendered by untrusted
// clients, so no HTML survives the write path.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML from s, unescapes entities the policy introduced,
// and trims surrounding whitespace. Plain text passes through unchanged.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
