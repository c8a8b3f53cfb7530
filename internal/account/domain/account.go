// Package domain defines the core account domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/errors"
)

// Account is a registered identity: login credentials plus encrypted profile
// data. The email is the only personal field stored in plaintext — it is the
// login lookup key and carries a unique index.
//
// WrappedFieldKey is the account's field-encryption key, wrapped under the
// process master key. It exists solely so the credential store can decrypt
// this account's profile fields in-process; it must never be serialized into
// any response payload.
type Account struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string
	WrappedFieldKey string

	// Ciphertext blobs produced by the field cipher; nil when unset.
	EncryptedGivenName  []byte
	EncryptedFamilyName []byte
	EncryptedPhone      []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile holds an account's decrypted personal fields. Only ever built
// in-process, immediately before returning profile data to its owner.
type Profile struct {
	GivenName  string
	FamilyName string
	Phone      string
}

// Domain-specific errors for account operations.
var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.Wrap(errors.ErrNotFound, "account not found")

	// ErrEmailAlreadyTaken indicates an account with the same email already exists.
	ErrEmailAlreadyTaken = errors.Wrap(errors.ErrConflict, "email already taken")

	// ErrInvalidCredentials is the single outward signal for a failed login.
	// Unknown email and wrong password both map here so responses cannot be
	// used to enumerate accounts.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrWeakPassword indicates the password fails the configured strength policy.
	ErrWeakPassword = errors.Wrap(errors.ErrInvalidInput, "password does not meet the strength policy")

	// ErrEmailRequired indicates the email field is required.
	ErrEmailRequired = errors.Wrap(errors.ErrInvalidInput, "email is required")

	// ErrInvalidEmail indicates the email format is invalid.
	ErrInvalidEmail = errors.Wrap(errors.ErrInvalidInput, "invalid email format")
)
