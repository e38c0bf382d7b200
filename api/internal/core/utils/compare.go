package utils

import "crypto/subtle"

// ConstantTimeEquals compares two tokens without leaking where they diverge.
// Validation tokens are short-lived, but timing-safe comparison costs nothing.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
