// Package digest computes the content fingerprints stored in docref
// directives. Two documents with identical bytes always produce the same
// digest across process runs; that is the only property callers rely on.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Length is the number of hex characters persisted in a directive.
// SHA-256 yields 64; the stored form is truncated to keep directives compact.
const Length = 32

// Compute returns the digest of raw document content.
func Compute(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:Length]
}

// IsValid reports whether s has the shape of a stored digest.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}
