package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex SHA-256 digest of a refresh token. The
// credential store keeps only this digest; the raw token lives with the client.
func HashRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// RefreshTokenHashEqual reports whether presented hashes to storedHash,
// comparing in constant time. An empty storedHash (logged out) never matches.
func RefreshTokenHashEqual(presented, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashRefreshToken(presented)), []byte(storedHash)) == 1
}
