package dto

import (
	"time"

	sessionDomain "github.com/parlorchat/parlor/internal/session/domain"
	"github.com/parlorchat/parlor/internal/session/usecase"
)

// LoginResponse contains the result of a successful login.
// SECURITY: The token is only returned once; the server keeps its hash.
type LoginResponse struct {
	AccountID string    `json:"account_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Remember  bool      `json:"remember"`
}

// MapIssuedSessionToResponse converts an issued session to an API response.
func MapIssuedSessionToResponse(issued *usecase.IssuedSession) LoginResponse {
	return LoginResponse{
		AccountID: issued.Session.AccountID.String(),
		Token:     issued.Token,
		ExpiresAt: issued.Session.ExpiresAt,
		Remember:  issued.Session.Remember,
	}
}

// SessionResponse represents a session in API responses. The token hash is
// deliberately absent; nothing derived from the token leaves the server.
type SessionResponse struct {
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Remember  bool      `json:"remember"`
	UserAgent string    `json:"user_agent,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Current   bool      `json:"current"`
}

// RefreshResponse contains the new deadline after a session refresh.
type RefreshResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// ListSessionsResponse represents an account's live sessions.
type ListSessionsResponse struct {
	Data []SessionResponse `json:"data"`
}

// MapSessionsToListResponse converts domain sessions to a list API response.
// currentTokenHash marks which entry belongs to the requesting client.
func MapSessionsToListResponse(
	sessions []*sessionDomain.Session,
	currentTokenHash string,
) ListSessionsResponse {
	sessionResponses := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		sessionResponses = append(sessionResponses, SessionResponse{
			IssuedAt:  session.IssuedAt,
			ExpiresAt: session.ExpiresAt,
			Remember:  session.Remember,
			UserAgent: session.UserAgent,
			IP:        session.IP,
			Current:   session.TokenHash == currentTokenHash,
		})
	}
	return ListSessionsResponse{
		Data: sessionResponses,
	}
}
