package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/parlor/internal/account/domain"
	"github.com/parlorchat/parlor/internal/account/usecase"
	apperrors "github.com/parlorchat/parlor/internal/errors"
	sessionHTTP "github.com/parlorchat/parlor/internal/session/http"
)

// MockAccountUseCase is a mock implementation of usecase.UseCase
type MockAccountUseCase struct {
	mock.Mock
}

func (m *MockAccountUseCase) Register(
	ctx context.Context,
	input usecase.RegisterInput,
) (*domain.Account, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountUseCase) VerifyCredentials(
	ctx context.Context,
	email, password string,
) (*domain.Account, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountUseCase) GetProfile(ctx context.Context, accountID uuid.UUID) (*domain.Profile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockAccountUseCase) UpdateProfile(
	ctx context.Context,
	accountID uuid.UUID,
	input usecase.UpdateProfileInput,
) (*domain.Profile, error) {
	args := m.Called(ctx, accountID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

// authInjector fakes the access guard by planting the account ID directly in
// the request context.
func authInjector(accountID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(
			sessionHTTP.WithAccountID(c.Request.Context(), accountID),
		)
		c.Next()
	}
}

func setupRouter(accountUseCase usecase.UseCase, accountID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAccountHandler(accountUseCase, slog.Default())

	router := gin.New()
	router.POST("/v1/accounts", handler.RegisterHandler)

	guarded := router.Group("", authInjector(accountID))
	guarded.GET("/v1/profile", handler.GetProfileHandler)
	guarded.PUT("/v1/profile", handler.UpdateProfileHandler)

	return router
}

func jsonBody(t *testing.T, payload interface{}) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestAccountHandler_Register(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		useCase := &MockAccountUseCase{}
		router := setupRouter(useCase, uuid.Nil)

		account := &domain.Account{
			ID:              uuid.Must(uuid.NewV7()),
			Email:           "jane@example.com",
			PasswordHash:    "argon2id-hash",
			WrappedFieldKey: "mk1:aes-gcm:d3JhcHBlZA",
		}
		useCase.On("Register", mock.Anything, mock.AnythingOfType("usecase.RegisterInput")).
			Return(account, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts", jsonBody(t, map[string]string{
			"email":    "jane@example.com",
			"password": "SecurePass123!",
		}))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, account.ID.String(), resp["id"])
		assert.Equal(t, "jane@example.com", resp["email"])
		// Secret-bearing columns never serialize into responses.
		assert.NotContains(t, w.Body.String(), "argon2id-hash")
		assert.NotContains(t, w.Body.String(), "d3JhcHBlZA")
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		useCase := &MockAccountUseCase{}
		router := setupRouter(useCase, uuid.Nil)

		useCase.On("Register", mock.Anything, mock.Anything).
			Return(nil, domain.ErrEmailAlreadyTaken)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts", jsonBody(t, map[string]string{
			"email":    "taken@example.com",
			"password": "SecurePass123!",
		}))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("WeakPassword", func(t *testing.T) {
		useCase := &MockAccountUseCase{}
		router := setupRouter(useCase, uuid.Nil)

		useCase.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperrors.Wrap(apperrors.ErrInvalidInput, "password too weak"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts", jsonBody(t, map[string]string{
			"email":    "jane@example.com",
			"password": "weak",
		}))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		useCase := &MockAccountUseCase{}
		router := setupRouter(useCase, uuid.Nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewReader([]byte("{nope")))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		useCase.AssertNotCalled(t, "Register")
	})
}

func TestAccountHandler_GetProfile(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		useCase := &MockAccountUseCase{}
		router := setupRouter(useCase, accountID)

		profile := &domain.Profile{GivenName: "Jane", FamilyName: "Doe", Phone: "+15550100"}
		useCase.On("GetProfile", mock.Anything, accountID).Return(profile, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Jane", resp["given_name"])
		assert.Equal(t, "Doe", resp["family_name"])
		assert.Equal(t, "+15550100", resp["phone"])
	})

	t.Run("AccountGone", func(t *testing.T) {
		useCase := &MockAccountUseCase{}
		router := setupRouter(useCase, accountID)

		useCase.On("GetProfile", mock.Anything, accountID).
			Return(nil, domain.ErrAccountNotFound)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAccountHandler_UpdateProfile(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		useCase := &MockAccountUseCase{}
		router := setupRouter(useCase, accountID)

		profile := &domain.Profile{GivenName: "Janet"}
		useCase.On("UpdateProfile", mock.Anything, accountID,
			mock.AnythingOfType("usecase.UpdateProfileInput")).
			Return(profile, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/v1/profile", jsonBody(t, map[string]string{
			"given_name": "Janet",
		}))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Janet", resp["given_name"])
	})

	t.Run("PartialFieldsOnly", func(t *testing.T) {
		useCase := &MockAccountUseCase{}
		router := setupRouter(useCase, accountID)

		var captured usecase.UpdateProfileInput
		useCase.On("UpdateProfile", mock.Anything, accountID,
			mock.AnythingOfType("usecase.UpdateProfileInput")).
			Run(func(args mock.Arguments) {
				captured = args.Get(2).(usecase.UpdateProfileInput)
			}).
			Return(&domain.Profile{}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/v1/profile", jsonBody(t, map[string]string{
			"phone": "",
		}))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, captured.Phone)
		assert.Empty(t, *captured.Phone)
		assert.Nil(t, captured.GivenName)
		assert.Nil(t, captured.FamilyName)
	})
}
