// Package crypto provides token hashing helpers for secrets that are
// stored server-side, such as password reset tokens.
package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashToken returns the SHA256 hash of a token as a hex string. The
// plaintext token goes to the user; only the hash is ever persisted.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// VerifyTokenHash checks a plaintext token against a stored hash in
// constant time.
func VerifyTokenHash(token, storedHash string) bool {
	computedHash := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computedHash), []byte(storedHash)) == 1
}
