package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/httputil"
	"github.com/parlorchat/parlor/internal/session/domain"
	"github.com/parlorchat/parlor/internal/session/usecase"
)

// AccountIDHeader carries the claimed account identity on guarded requests.
const AccountIDHeader = "X-Account-ID"

// AccessGuardMiddleware authenticates requests against the session store.
//
// The middleware:
//  1. Reads the claimed account ID from the X-Account-ID header
//  2. Extracts the Bearer token from the Authorization header (case-insensitive)
//  3. Validates the pair via the session use case
//  4. Stores the account ID and session in the request context
//
// Error handling:
//   - Missing or malformed headers → 401 Unauthorized
//   - Unknown, expired, or mismatched session → 401 Unauthorized
//   - Session store unreachable → 503 Service Unavailable (fails closed)
//
// The guard never extends the session deadline; only the refresh endpoint
// does that.
func AccessGuardMiddleware(sessionUseCase usecase.UseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, err := uuid.Parse(c.GetHeader(AccountIDHeader))
		if err != nil {
			if logger != nil {
				logger.Debug("access guard: missing or malformed account id header")
			}
			httputil.HandleErrorGin(c, domain.ErrAuthRequired, logger)
			c.Abort()
			return
		}

		plainToken, ok := bearerToken(c)
		if !ok {
			if logger != nil {
				logger.Debug("access guard: missing or malformed bearer token")
			}
			httputil.HandleErrorGin(c, domain.ErrAuthRequired, logger)
			c.Abort()
			return
		}

		session, err := sessionUseCase.Authorize(c.Request.Context(), accountID, plainToken)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithAccountID(c.Request.Context(), accountID)
		ctx = WithSession(ctx, session)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// bearerToken extracts the Bearer token from the Authorization header.
// The "bearer" scheme comparison is case-insensitive.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	const bearerPrefix = "bearer "
	if len(authHeader) < len(bearerPrefix) ||
		!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := authHeader[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}
