// Package id provides identifier generation for requests.
package id

import (
	"github.com/google/uuid"
)

// MaxRequestIDLength is the longest inbound request ID that is reused.
const MaxRequestIDLength = 128

// UUID generates a random (version 4) UUID.
func UUID() string {
	return uuid.NewString()
}

// RequestID returns inbound if it is a usable request ID, otherwise a new
// UUID. A usable ID is non-empty, at most MaxRequestIDLength bytes long and
// made of printable ASCII characters without spaces.
func RequestID(inbound string) string {
	if ValidRequestID(inbound) {
		return inbound
	}
	return UUID()
}

// ValidRequestID reports whether s can be echoed back as a request ID.
func ValidRequestID(s string) bool {
	if s == "" || len(s) > MaxRequestIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
