package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parlorchat/parlor/internal/httputil"
	"github.com/parlorchat/parlor/internal/session/domain"
	"github.com/parlorchat/parlor/internal/session/http/dto"
	"github.com/parlorchat/parlor/internal/session/usecase"
	customValidation "github.com/parlorchat/parlor/internal/validation"
)

// SessionHandler handles HTTP requests for session lifecycle operations:
// login, logout, refresh, and listing.
type SessionHandler struct {
	sessionUseCase usecase.UseCase
	logger         *slog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionUseCase usecase.UseCase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		logger:         logger,
	}
}

// LoginHandler verifies credentials and issues a session.
// POST /v1/login - unauthenticated, rate limited per IP.
// Returns 201 Created with the plain token (shown exactly once).
func (h *SessionHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	issued, err := h.sessionUseCase.Issue(c.Request.Context(), usecase.IssueInput{
		Email:     req.Email,
		Password:  req.Password,
		Remember:  req.Remember,
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIssuedSessionToResponse(issued))
}

// LogoutHandler revokes the session presented by the request.
// POST /v1/logout - requires the access guard.
// Returns 204 No Content; logging out twice is not an error.
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	accountID, ok := GetAccountID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAuthRequired, h.logger)
		return
	}

	plainToken, ok := bearerToken(c)
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAuthRequired, h.logger)
		return
	}

	if err := h.sessionUseCase.Revoke(c.Request.Context(), accountID, plainToken); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshHandler extends the presented session's deadline.
// POST /v1/sessions/refresh - requires the access guard; this is the only
// endpoint that moves a session deadline.
// Returns 200 OK with the new deadline.
func (h *SessionHandler) RefreshHandler(c *gin.Context) {
	accountID, ok := GetAccountID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAuthRequired, h.logger)
		return
	}

	plainToken, ok := bearerToken(c)
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAuthRequired, h.logger)
		return
	}

	session, err := h.sessionUseCase.Refresh(c.Request.Context(), accountID, plainToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{ExpiresAt: session.ExpiresAt})
}

// ListHandler returns the account's live sessions.
// GET /v1/sessions - requires the access guard.
// Returns 200 OK; the entry matching the presented token is flagged current.
func (h *SessionHandler) ListHandler(c *gin.Context) {
	accountID, ok := GetAccountID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrAuthRequired, h.logger)
		return
	}

	sessions, err := h.sessionUseCase.List(c.Request.Context(), accountID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	currentTokenHash := ""
	if session, ok := GetSession(c.Request.Context()); ok {
		currentTokenHash = session.TokenHash
	}

	c.JSON(http.StatusOK, dto.MapSessionsToListResponse(sessions, currentTokenHash))
}
