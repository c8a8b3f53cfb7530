// Package domain defines the core session domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/errors"
)

// Session is an authenticated login, stored server-side and keyed by the
// owning account plus the hash of the bearer token. The plain token is
// handed to the client exactly once, at issuance; only its hash is kept.
type Session struct {
	AccountID uuid.UUID `json:"account_id"`
	TokenHash string    `json:"token_hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Remember  bool      `json:"remember"`
	UserAgent string    `json:"user_agent,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

// Expired reports whether the session's deadline has passed. The store's
// own TTL eviction is the primary mechanism; this is the authoritative
// check applied on every read.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Domain-specific errors for session operations.
var (
	// ErrSessionInvalid indicates the presented token does not correspond to a
	// live session for the claimed account. Missing, expired, and revoked
	// sessions all map here.
	ErrSessionInvalid = errors.Wrap(errors.ErrUnauthorized, "session invalid")

	// ErrAuthRequired indicates the request carried no usable credentials.
	ErrAuthRequired = errors.Wrap(errors.ErrUnauthorized, "authentication required")

	// ErrSessionStoreUnavailable indicates the session store could not be
	// reached. Authorization fails closed on this error.
	ErrSessionStoreUnavailable = errors.Wrap(errors.ErrUnavailable, "session store unavailable")
)
