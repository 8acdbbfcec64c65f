// Package validate contains the input hygiene rules applied before any value
// reaches hashing or storage. Everything here is a pure function: no logging,
// no I/O, no state.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Storage-layer field bounds. The email bound here is the column width, which
// is distinct from the 254-char RFC syntax bound enforced by Email.
const (
	MaxUsernameLen = 50
	MaxEmailLen    = 100
	MinPasswordLen = 8
	MaxPasswordLen = 200

	// DefaultSanitizeLen is the truncation bound Sanitize applies when
	// callers have no tighter policy.
	DefaultSanitizeLen = 1000

	maxEmailSyntaxLen = 254 // RFC 5321
)

// Simplified RFC 5322: local@domain.tld with a 2+ letter TLD.
var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Email reports whether s is a syntactically valid email address.
// This checks format only, not deliverability.
func Email(s string) bool {
	if s == "" || len(s) > maxEmailSyntaxLen {
		return false
	}
	return emailRe.MatchString(s)
}

// Username reports whether s fits the 1-50 char username bound.
func Username(s string) bool {
	return s != "" && len(s) <= MaxUsernameLen
}

// EmailField reports whether s fits the 1-100 char storage bound.
func EmailField(s string) bool {
	return s != "" && len(s) <= MaxEmailLen
}

// Password reports whether s fits the 8-200 char password bound.
func Password(s string) bool {
	return len(s) >= MinPasswordLen && len(s) <= MaxPasswordLen
}

// Sanitize normalizes free-text input before it is stored or logged: NUL
// bytes are dropped, C0 control characters other than \n \r \t (and DEL) are
// dropped, whitespace runs collapse to single spaces with the ends trimmed,
// and the result is truncated to maxLen. The returned bool reports whether
// truncation occurred so callers can log it; truncation is policy, not an
// error.
//
// Sanitize is idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
//
// This is defense in depth only. The primary injection defense is that every
// storage operation binds parameters instead of interpolating query text.
func Sanitize(s string, maxLen int) (string, bool) {
	if s == "" {
		return "", false
	}
	if maxLen <= 0 {
		maxLen = DefaultSanitizeLen
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// NUL and the rest of C0, plus DEL
		default:
			b.WriteRune(r)
		}
	}

	clean := strings.Join(strings.Fields(b.String()), " ")

	if utf8.RuneCountInString(clean) > maxLen {
		runes := []rune(clean)
		// Trim any space left dangling at the cut so the result re-sanitizes
		// to itself.
		return strings.TrimRight(string(runes[:maxLen]), " "), true
	}
	return clean, false
}
