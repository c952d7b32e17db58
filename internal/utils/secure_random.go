package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureRandomString returns a hex-encoded string built from
// byteLength bytes of crypto/rand output, so the result is twice byteLength
// characters long. Refresh tokens are minted through this.
func GenerateSecureRandomString(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("byteLength must be positive, got %d", byteLength)
	}
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
