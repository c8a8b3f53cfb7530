// Package http provides the HTTP access guard and session endpoints.
package http

import (
	"context"

	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/session/domain"
)

// accountIDKey is a context key type for storing the authenticated account ID.
type accountIDKey struct{}

// sessionKey is a context key type for storing the authorized session.
type sessionKey struct{}

// WithAccountID stores the authenticated account ID in the context.
// This is called by the access guard after successful authorization.
func WithAccountID(ctx context.Context, accountID uuid.UUID) context.Context {
	return context.WithValue(ctx, accountIDKey{}, accountID)
}

// GetAccountID retrieves the authenticated account ID from the context.
// Returns (id, true) if present, or (uuid.Nil, false) if the request was
// not authenticated.
func GetAccountID(ctx context.Context) (uuid.UUID, bool) {
	accountID, ok := ctx.Value(accountIDKey{}).(uuid.UUID)
	return accountID, ok
}

// WithSession stores the authorized session in the context.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSession retrieves the authorized session from the context.
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*domain.Session)
	return session, ok
}
