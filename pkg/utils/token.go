package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns a URL-safe random token of n source bytes.
// Used for share tokens and session tokens; both are opaque and unguessable.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateShareToken returns a share token for a eulogy. Tokens are unique
// (192 bits of randomness, plus a UNIQUE constraint in the store) and
// immutable once created.
func GenerateShareToken() (string, error) {
	return GenerateToken(24)
}
