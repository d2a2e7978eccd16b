package internal

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewFingerprint returns a fresh rotation fingerprint. The raw value is
// embedded in the refresh token; only its hash is ever persisted.
func NewFingerprint() string {
	return uuid.NewString()
}

// HashFingerprint returns the hex-encoded SHA-256 of a fingerprint, the
// form stored against the identity and compared during rotation.
func HashFingerprint(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:])
}
