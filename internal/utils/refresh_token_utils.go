package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex SHA-256 digest of a raw refresh token.
// Only this digest is ever persisted; the raw token lives in the client's
// cookie alone.
func HashRefreshToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// CompareRefreshTokenHash reports whether the raw token presented by a client
// matches the stored digest, in constant time.
func CompareRefreshTokenHash(rawToken string, storedHash string) bool {
	computed := HashRefreshToken(rawToken)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
