// Package validator holds the field rules applied to intake form submissions.
// Every function is pure and safe for concurrent use.
package validator

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,63}$`)

	// Iranian mobile numbers: 09 followed by nine digits.
	mobilePattern = regexp.MustCompile(`^09[0-9]{9}$`)
)

// ValidateEmail reports whether s is a plausible email address.
// On top of the basic local@domain.tld shape it rejects consecutive dots,
// a dot at either end of the local part or the domain, more than one '@'
// and a domain that starts or ends with a hyphen. Anything accepted here
// also parses as an RFC 5322 address, so the confirmation can be sent.
func ValidateEmail(s string) bool {
	if s == "" {
		return false
	}
	if !emailPattern.MatchString(s) {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	if strings.Count(s, "@") != 1 {
		return false
	}

	at := strings.IndexByte(s, '@')
	local, domain := s[:at], s[at+1:]
	if strings.HasSuffix(local, ".") || strings.HasPrefix(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return false
	}
	return true
}

// ValidatePhone reports whether s is an Iranian mobile number once every
// non-digit character has been removed.
func ValidatePhone(s string) bool {
	if s == "" {
		return false
	}
	clean := digitsOnly(s)
	return len(clean) == 11 && mobilePattern.MatchString(clean)
}

// NormalizePhone strips every non-digit character from s. Empty input is
// returned unchanged.
func NormalizePhone(s string) string {
	if s == "" {
		return s
	}
	return digitsOnly(s)
}

// FormatPhone groups an 11-digit number as DDDD-DDD-DDDD for display.
// Anything else is returned as is.
func FormatPhone(s string) string {
	if len(s) != 11 {
		return s
	}
	return s[:4] + "-" + s[4:7] + "-" + s[7:]
}

// digitsOnly keeps ASCII digits and maps Persian (U+06F0..U+06F9) and
// Arabic-Indic (U+0660..U+0669) digits onto them, dropping everything else.
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		}
	}
	return b.String()
}
