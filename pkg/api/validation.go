package api

import (
	"regexp"
	"strings"
)

// Deliberately loose: the definitive uniqueness check is the store's
// unique index, this only rejects obviously broken input.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// NormalizeEmail lowercases and trims an email address. Emails are
// compared case-insensitively everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports whether the email has a plausible shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(NormalizeEmail(email))
}

// ValidatePassword reports whether the password meets the minimum policy.
func ValidatePassword(password string) bool {
	return len(password) >= minPasswordLength
}
