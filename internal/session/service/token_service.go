// Package service provides session-related services for opaque token
// generation and hashing.
package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/parlorchat/parlor/internal/errors"
)

// TokenService generates and hashes opaque session tokens. Tokens are
// unguessable random values with no embedded claims; everything about a
// session lives server-side.
type TokenService interface {
	// GenerateToken creates a new random token and returns both the plain
	// form (sent to the client once) and its hash (the only form stored).
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken hashes a plain token for lookup against stored sessions.
	HashToken(plainToken string) string

	// CompareHash performs a constant-time comparison of two token hashes.
	CompareHash(a, b string) bool
}

// tokenService implements TokenService using SHA-256 for token hashing.
type tokenService struct{}

// NewTokenService creates a new TokenService instance.
func NewTokenService() TokenService {
	return &tokenService{}
}

// GenerateToken creates a new cryptographically secure 32-byte random token.
// The token is base64 URL-encoded for transmission; the returned hash is
// what gets stored.
func (t *tokenService) GenerateToken() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken := base64.URLEncoding.EncodeToString(randomBytes)
	return plainToken, t.HashToken(plainToken), nil
}

// HashToken hashes a plain text token using SHA-256 and returns the hash as
// a hexadecimal string.
func (t *tokenService) HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

// CompareHash compares two token hashes in constant time.
func (t *tokenService) CompareHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
