// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans learner-supplied HTML before it is stored.
// Profile bios allow light formatting; everything else is stripped to
// plain text.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// bioPolicy allows the formatting the bio editor emits: paragraphs,
	// emphasis, lists, links. Scripts, event handlers, and javascript:
	// URLs are removed.
	bioPolicy = bluemonday.UGCPolicy()

	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize returns s with disallowed HTML removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(bioPolicy.Sanitize(s))
}

// StripTags removes all HTML, leaving plain text. Used for single-line
// fields like display names.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
