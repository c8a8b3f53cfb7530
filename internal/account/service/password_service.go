// Package service provides account-related services for password hashing and
// verification using Argon2id.
package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/parlorchat/parlor/internal/errors"
)

// PasswordService hashes passwords for storage and verifies login attempts.
type PasswordService interface {
	// HashPassword returns a salted Argon2id hash of the password. The plain
	// password is never stored.
	HashPassword(plainPassword string) (string, error)

	// ComparePassword performs a constant-time comparison between a plain
	// password and its stored hash.
	ComparePassword(plainPassword string, passwordHash string) bool
}

// passwordService implements PasswordService using Argon2id.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// NewPasswordService creates a PasswordService using the interactive Argon2id
// policy, suited for user-facing login latency.
func NewPasswordService() (PasswordService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}
	return &passwordService{hasher: hasher}, nil
}

// HashPassword hashes a plain password using Argon2id.
func (s *passwordService) HashPassword(plainPassword string) (string, error) {
	hash, err := s.hasher.Hash([]byte(plainPassword))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hash, nil
}

// ComparePassword verifies a plain password against its stored hash.
func (s *passwordService) ComparePassword(plainPassword string, passwordHash string) bool {
	ok, err := s.hasher.Verify([]byte(plainPassword), passwordHash)
	if err != nil {
		return false
	}
	return ok
}
