// Package http provides HTTP handlers for account registration and profile
// access.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parlorchat/parlor/internal/account/http/dto"
	"github.com/parlorchat/parlor/internal/account/usecase"
	"github.com/parlorchat/parlor/internal/httputil"
	sessionDomain "github.com/parlorchat/parlor/internal/session/domain"
	sessionHTTP "github.com/parlorchat/parlor/internal/session/http"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountUseCase usecase.UseCase
	logger         *slog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountUseCase usecase.UseCase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		logger:         logger,
	}
}

// RegisterHandler creates a new account.
// POST /v1/accounts - unauthenticated.
// Returns 201 Created with the public account fields.
func (h *AccountHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	account, err := h.accountUseCase.Register(c.Request.Context(), dto.ToRegisterInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapAccountToResponse(account))
}

// GetProfileHandler returns the authenticated account's decrypted profile.
// GET /v1/profile - requires the access guard.
func (h *AccountHandler) GetProfileHandler(c *gin.Context) {
	accountID, ok := sessionHTTP.GetAccountID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, sessionDomain.ErrAuthRequired, h.logger)
		return
	}

	profile, err := h.accountUseCase.GetProfile(c.Request.Context(), accountID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}

// UpdateProfileHandler applies a partial update to the authenticated
// account's profile and returns the result.
// PUT /v1/profile - requires the access guard.
func (h *AccountHandler) UpdateProfileHandler(c *gin.Context) {
	accountID, ok := sessionHTTP.GetAccountID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, sessionDomain.ErrAuthRequired, h.logger)
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	profile, err := h.accountUseCase.UpdateProfile(
		c.Request.Context(),
		accountID,
		dto.ToUpdateProfileInput(req),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapProfileToResponse(profile))
}
