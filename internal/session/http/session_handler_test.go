package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accountDomain "github.com/parlorchat/parlor/internal/account/domain"
	"github.com/parlorchat/parlor/internal/session/domain"
	"github.com/parlorchat/parlor/internal/session/usecase"
)

// MockSessionUseCase is a mock implementation of usecase.UseCase
type MockSessionUseCase struct {
	mock.Mock
}

func (m *MockSessionUseCase) Issue(ctx context.Context, input usecase.IssueInput) (*usecase.IssuedSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.IssuedSession), args.Error(1)
}

func (m *MockSessionUseCase) Authorize(
	ctx context.Context,
	accountID uuid.UUID,
	plainToken string,
) (*domain.Session, error) {
	args := m.Called(ctx, accountID, plainToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionUseCase) Refresh(
	ctx context.Context,
	accountID uuid.UUID,
	plainToken string,
) (*domain.Session, error) {
	args := m.Called(ctx, accountID, plainToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionUseCase) Revoke(ctx context.Context, accountID uuid.UUID, plainToken string) error {
	args := m.Called(ctx, accountID, plainToken)
	return args.Error(0)
}

func (m *MockSessionUseCase) RevokeAll(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionUseCase) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Session, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

func setupRouter(sessionUseCase usecase.UseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(sessionUseCase, slog.Default())

	router := gin.New()
	router.POST("/v1/login", handler.LoginHandler)

	guarded := router.Group("", AccessGuardMiddleware(sessionUseCase, slog.Default()))
	guarded.POST("/v1/logout", handler.LogoutHandler)
	guarded.POST("/v1/sessions/refresh", handler.RefreshHandler)
	guarded.GET("/v1/sessions", handler.ListHandler)

	return router
}

func loginBody(t *testing.T, email, password string, remember bool) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"email":    email,
		"password": password,
		"remember": remember,
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestSessionHandler_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		accountID := uuid.Must(uuid.NewV7())
		issued := &usecase.IssuedSession{
			Token: "plain-token",
			Session: &domain.Session{
				AccountID: accountID,
				TokenHash: "hash",
				ExpiresAt: time.Now().Add(24 * time.Hour),
			},
		}
		useCase.On("Issue", mock.Anything, mock.AnythingOfType("usecase.IssueInput")).
			Return(issued, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/login",
			loginBody(t, "jane@example.com", "SecurePass123!", false))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "plain-token", resp["token"])
		assert.Equal(t, accountID.String(), resp["account_id"])
		// The token hash never appears in a response body.
		assert.NotContains(t, w.Body.String(), "hash")
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		useCase.On("Issue", mock.Anything, mock.Anything).
			Return(nil, accountDomain.ErrInvalidCredentials)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/login",
			loginBody(t, "jane@example.com", "WrongPass", false))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/login", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		useCase.AssertNotCalled(t, "Issue")
	})

	t.Run("MissingFields", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/login", loginBody(t, "", "", false))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		useCase.AssertNotCalled(t, "Issue")
	})

	t.Run("StoreUnavailable", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		useCase.On("Issue", mock.Anything, mock.Anything).
			Return(nil, domain.ErrSessionStoreUnavailable)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/login",
			loginBody(t, "jane@example.com", "SecurePass123!", false))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestAccessGuardMiddleware(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())

	authedRequest := func(method, target string) *http.Request {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set(AccountIDHeader, accountID.String())
		req.Header.Set("Authorization", "Bearer plain-token")
		return req
	}

	t.Run("ValidSessionPassesThrough", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		session := &domain.Session{
			AccountID: accountID,
			TokenHash: "hash",
			ExpiresAt: time.Now().Add(time.Hour),
		}
		useCase.On("Authorize", mock.Anything, accountID, "plain-token").Return(session, nil)
		useCase.On("List", mock.Anything, accountID).Return([]*domain.Session{session}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodGet, "/v1/sessions"))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MissingAccountIDHeader", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
		req.Header.Set("Authorization", "Bearer plain-token")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		useCase.AssertNotCalled(t, "Authorize")
	})

	t.Run("MissingBearerToken", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
		req.Header.Set(AccountIDHeader, accountID.String())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		useCase.AssertNotCalled(t, "Authorize")
	})

	t.Run("MalformedAuthorizationScheme", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
		req.Header.Set(AccountIDHeader, accountID.String())
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("InvalidSession", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		useCase.On("Authorize", mock.Anything, accountID, "plain-token").
			Return(nil, domain.ErrSessionInvalid)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodGet, "/v1/sessions"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("StoreOutageFailsClosedWith503", func(t *testing.T) {
		useCase := &MockSessionUseCase{}
		router := setupRouter(useCase)

		useCase.On("Authorize", mock.Anything, accountID, "plain-token").
			Return(nil, domain.ErrSessionStoreUnavailable)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest(http.MethodGet, "/v1/sessions"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		useCase.AssertNotCalled(t, "List")
	})
}

func TestSessionHandler_Logout(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())

	useCase := &MockSessionUseCase{}
	router := setupRouter(useCase)

	session := &domain.Session{
		AccountID: accountID,
		TokenHash: "hash",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	useCase.On("Authorize", mock.Anything, accountID, "plain-token").Return(session, nil)
	useCase.On("Revoke", mock.Anything, accountID, "plain-token").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/logout", nil)
	req.Header.Set(AccountIDHeader, accountID.String())
	req.Header.Set("Authorization", "Bearer plain-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	useCase.AssertExpectations(t)
}

func TestSessionHandler_Refresh(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())

	useCase := &MockSessionUseCase{}
	router := setupRouter(useCase)

	session := &domain.Session{
		AccountID: accountID,
		TokenHash: "hash",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	refreshed := &domain.Session{
		AccountID: accountID,
		TokenHash: "hash",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	useCase.On("Authorize", mock.Anything, accountID, "plain-token").Return(session, nil)
	useCase.On("Refresh", mock.Anything, accountID, "plain-token").Return(refreshed, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/refresh", nil)
	req.Header.Set(AccountIDHeader, accountID.String())
	req.Header.Set("Authorization", "Bearer plain-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "expires_at")
}

func TestSessionHandler_List(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())

	useCase := &MockSessionUseCase{}
	router := setupRouter(useCase)

	current := &domain.Session{
		AccountID: accountID,
		TokenHash: "current-hash",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	other := &domain.Session{
		AccountID: accountID,
		TokenHash: "other-hash",
		ExpiresAt: time.Now().Add(time.Hour),
		UserAgent: "other-client",
	}
	useCase.On("Authorize", mock.Anything, accountID, "plain-token").Return(current, nil)
	useCase.On("List", mock.Anything, accountID).Return([]*domain.Session{current, other}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set(AccountIDHeader, accountID.String())
	req.Header.Set("Authorization", "Bearer plain-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Current   bool   `json:"current"`
			UserAgent string `json:"user_agent"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].Current)
	assert.False(t, resp.Data[1].Current)
	// Token hashes stay server-side.
	assert.NotContains(t, w.Body.String(), "current-hash")
	assert.NotContains(t, w.Body.String(), "other-hash")
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoginRateLimitMiddleware(1, 2, slog.Default()))
	router.POST("/v1/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Burst of 2 allowed, third is limited
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
