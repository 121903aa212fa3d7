// Package htmlsanitize strips markup from user-supplied text before it is
// stored. Tender text is plain text; the UI collaborator renders it escaped,
// but records are also exported and shown by other tools.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag and attribute.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all HTML removed and surrounding whitespace
// trimmed. The policy's entities are unescaped again, so "<i>AT&amp;T</i>"
// becomes "AT&T", unless unescaping would bring back angle brackets; then the
// escaped form is kept.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	clean := strings.TrimSpace(strict.Sanitize(s))
	if plain := html.UnescapeString(clean); !strings.ContainsAny(plain, "<>") {
		return plain
	}
	return clean
}
