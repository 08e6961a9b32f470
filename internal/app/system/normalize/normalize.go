// internal/app/system/normalize/normalize.go

// Package normalize provides canonical forms for user-entered identifiers
// so that lookups and uniqueness checks are insensitive to formatting.
package normalize

import "strings"

// Phone canonicalizes a phone number: digits only, with a leading "+"
// preserved if present. "010-1234-5678", "010 1234 5678" and
// "01012345678" all normalize to the same key, which matters because the
// phone number keys both the identity record and the rejoin restriction.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}
