// internal/app/system/normalize/normalize.go

// Package normalize holds the small canonicalizations applied to
// user-supplied identity fields before they are stored or compared.
package normalize

import "strings"

// Email lowercases and trims an email address. Lookup and storage always
// go through this so the unique index on profiles.email behaves
// case-insensitively.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}
