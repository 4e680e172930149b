package service

import "strings"

// CanonicalizeEmail normalizes an email address for storage and uniqueness
// checks: trimmed and lowercased.
func CanonicalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanonicalizeUsername normalizes a username the same way the email is
// normalized; usernames are unique case-insensitively.
func CanonicalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
