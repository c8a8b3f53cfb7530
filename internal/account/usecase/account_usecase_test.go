package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/parlor/internal/account/domain"
	"github.com/parlorchat/parlor/internal/account/service"
	apperrors "github.com/parlorchat/parlor/internal/errors"
	outboxDomain "github.com/parlorchat/parlor/internal/outbox/domain"
	appValidation "github.com/parlorchat/parlor/internal/validation"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateProfile(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockFieldCipher is a mock implementation of cryptoService.FieldCipher. The
// encrypt/decrypt pair uses a reversible prefix so tests can assert on the
// round trip without a real key chain.
type MockFieldCipher struct {
	mock.Mock
}

func (m *MockFieldCipher) GenerateKey() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFieldCipher) EncryptField(plaintext, key []byte) ([]byte, error) {
	args := m.Called(plaintext, key)
	if args.Get(0) == nil && args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return append([]byte("enc:"), plaintext...), nil
}

func (m *MockFieldCipher) DecryptField(blob, key []byte) ([]byte, error) {
	args := m.Called(blob, key)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return blob[len("enc:"):], nil
}

func (m *MockFieldCipher) WrapKey(key []byte) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockFieldCipher) UnwrapKey(wrapped string) ([]byte, error) {
	args := m.Called(wrapped)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type testFixture struct {
	txManager   *MockTxManager
	accountRepo *MockAccountRepository
	outboxRepo  *MockOutboxEventRepository
	fieldCipher *MockFieldCipher
	useCase     *AccountUseCase
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	passwordService, err := service.NewPasswordService()
	require.NoError(t, err)

	f := &testFixture{
		txManager:   &MockTxManager{},
		accountRepo: &MockAccountRepository{},
		outboxRepo:  &MockOutboxEventRepository{},
		fieldCipher: &MockFieldCipher{},
	}

	policy := appValidation.PasswordStrength{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	f.useCase, err = NewAccountUseCase(
		f.txManager, f.accountRepo, f.outboxRepo,
		passwordService, f.fieldCipher, policy, slog.Default(),
	)
	require.NoError(t, err)

	return f
}

var testFieldKey = []byte("0123456789abcdef0123456789abcdef")

func TestAccountUseCase_Register_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := RegisterInput{
		Email:     "Jane@Example.COM",
		Password:  "SecurePass123!",
		GivenName: "Jane",
		Phone:     "",
	}

	f.fieldCipher.On("GenerateKey").Return(testFieldKey, nil)
	f.fieldCipher.On("WrapKey", mock.Anything).Return("mk1:aes-gcm:d3JhcHBlZA", nil)
	f.fieldCipher.On("EncryptField", mock.Anything, mock.Anything).Return([]byte{}, nil)
	f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	f.accountRepo.On("Create", ctx, mock.AnythingOfType("*domain.Account")).Return(nil)

	var capturedEvent *outboxDomain.OutboxEvent
	f.outboxRepo.On("Create", ctx, mock.AnythingOfType("*domain.OutboxEvent")).
		Run(func(args mock.Arguments) {
			capturedEvent = args.Get(1).(*outboxDomain.OutboxEvent)
		}).
		Return(nil)

	account, err := f.useCase.Register(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", account.Email)
	assert.NotEmpty(t, account.PasswordHash)
	assert.NotContains(t, account.PasswordHash, input.Password)
	assert.Equal(t, "mk1:aes-gcm:d3JhcHBlZA", account.WrappedFieldKey)
	assert.Equal(t, []byte("enc:Jane"), account.EncryptedGivenName)
	assert.Nil(t, account.EncryptedFamilyName)
	assert.Nil(t, account.EncryptedPhone)

	require.NotNil(t, capturedEvent)
	assert.Equal(t, outboxDomain.EventTypeAccountRegistered, capturedEvent.EventType)
	assert.Equal(t, outboxDomain.OutboxEventStatusPending, capturedEvent.Status)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(capturedEvent.Payload), &payload))
	assert.Equal(t, account.Email, payload["email"])
	assert.Equal(t, account.ID.String(), payload["account_id"])

	f.txManager.AssertExpectations(t)
	f.accountRepo.AssertExpectations(t)
	f.outboxRepo.AssertExpectations(t)
}

func TestAccountUseCase_Register_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"MissingEmail", RegisterInput{Password: "SecurePass123!"}},
		{"BadEmailFormat", RegisterInput{Email: "not-an-email", Password: "SecurePass123!"}},
		{"ShortPassword", RegisterInput{Email: "a@x.com", Password: "Ab1!"}},
		{"NoUppercase", RegisterInput{Email: "a@x.com", Password: "securepass123!"}},
		{"NoNumber", RegisterInput{Email: "a@x.com", Password: "SecurePass!"}},
		{"NoSpecial", RegisterInput{Email: "a@x.com", Password: "SecurePass123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := f.useCase.Register(ctx, tt.input)

			assert.Nil(t, account)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	f.accountRepo.AssertNotCalled(t, "Create")
}

func TestAccountUseCase_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fieldCipher.On("GenerateKey").Return(testFieldKey, nil)
	f.fieldCipher.On("WrapKey", mock.Anything).Return("mk1:aes-gcm:d3JhcHBlZA", nil)
	f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	f.accountRepo.On("Create", ctx, mock.AnythingOfType("*domain.Account")).
		Return(domain.ErrEmailAlreadyTaken)

	account, err := f.useCase.Register(ctx, RegisterInput{
		Email:    "taken@example.com",
		Password: "SecurePass123!",
	})

	assert.Nil(t, account)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyTaken)
	f.outboxRepo.AssertNotCalled(t, "Create")
}

func TestAccountUseCase_VerifyCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)

		passwordService, err := service.NewPasswordService()
		require.NoError(t, err)
		hash, err := passwordService.HashPassword("SecurePass123!")
		require.NoError(t, err)

		stored := &domain.Account{
			ID:           uuid.Must(uuid.NewV7()),
			Email:        "jane@example.com",
			PasswordHash: hash,
		}
		f.accountRepo.On("GetByEmail", ctx, "jane@example.com").Return(stored, nil)

		account, err := f.useCase.VerifyCredentials(ctx, "Jane@Example.com", "SecurePass123!")

		require.NoError(t, err)
		assert.Equal(t, stored.ID, account.ID)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		f := newFixture(t)
		f.accountRepo.On("GetByEmail", ctx, "ghost@example.com").
			Return(nil, domain.ErrAccountNotFound)

		account, err := f.useCase.VerifyCredentials(ctx, "ghost@example.com", "whatever")

		assert.Nil(t, account)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		// The not-found detail must not leak through the returned error.
		assert.NotErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		f := newFixture(t)

		passwordService, err := service.NewPasswordService()
		require.NoError(t, err)
		hash, err := passwordService.HashPassword("SecurePass123!")
		require.NoError(t, err)

		stored := &domain.Account{
			ID:           uuid.Must(uuid.NewV7()),
			Email:        "jane@example.com",
			PasswordHash: hash,
		}
		f.accountRepo.On("GetByEmail", ctx, "jane@example.com").Return(stored, nil)

		account, err := f.useCase.VerifyCredentials(ctx, "jane@example.com", "WrongPass123!")

		assert.Nil(t, account)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("UnknownEmailAndWrongPasswordAreIndistinguishable", func(t *testing.T) {
		f := newFixture(t)

		passwordService, err := service.NewPasswordService()
		require.NoError(t, err)
		hash, err := passwordService.HashPassword("SecurePass123!")
		require.NoError(t, err)

		stored := &domain.Account{
			ID:           uuid.Must(uuid.NewV7()),
			Email:        "jane@example.com",
			PasswordHash: hash,
		}
		f.accountRepo.On("GetByEmail", ctx, "jane@example.com").Return(stored, nil)
		f.accountRepo.On("GetByEmail", ctx, "ghost@example.com").
			Return(nil, domain.ErrAccountNotFound)

		_, errUnknown := f.useCase.VerifyCredentials(ctx, "ghost@example.com", "WrongPass123!")
		_, errWrongPw := f.useCase.VerifyCredentials(ctx, "jane@example.com", "WrongPass123!")

		assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
	})
}

func TestAccountUseCase_GetProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.Must(uuid.NewV7())

		stored := &domain.Account{
			ID:                 accountID,
			Email:              "jane@example.com",
			WrappedFieldKey:    "mk1:aes-gcm:d3JhcHBlZA",
			EncryptedGivenName: []byte("enc:Jane"),
			EncryptedPhone:     []byte("enc:+15550100"),
		}

		f.accountRepo.On("GetByID", ctx, accountID).Return(stored, nil)
		f.fieldCipher.On("UnwrapKey", stored.WrappedFieldKey).Return(testFieldKey, nil)
		f.fieldCipher.On("DecryptField", mock.Anything, testFieldKey).Return(nil, nil)

		profile, err := f.useCase.GetProfile(ctx, accountID)

		require.NoError(t, err)
		assert.Equal(t, "Jane", profile.GivenName)
		assert.Empty(t, profile.FamilyName)
		assert.Equal(t, "+15550100", profile.Phone)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.Must(uuid.NewV7())

		f.accountRepo.On("GetByID", ctx, accountID).Return(nil, domain.ErrAccountNotFound)

		profile, err := f.useCase.GetProfile(ctx, accountID)

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("UnwrapFailure", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.Must(uuid.NewV7())

		stored := &domain.Account{
			ID:              accountID,
			WrappedFieldKey: "mk-gone:aes-gcm:d3JhcHBlZA",
		}

		f.accountRepo.On("GetByID", ctx, accountID).Return(stored, nil)
		f.fieldCipher.On("UnwrapKey", stored.WrappedFieldKey).Return(nil, assert.AnError)

		profile, err := f.useCase.GetProfile(ctx, accountID)

		assert.Nil(t, profile)
		assert.Error(t, err)
	})
}

func TestAccountUseCase_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("PartialUpdateLeavesOtherFieldsUntouched", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.Must(uuid.NewV7())

		stored := &domain.Account{
			ID:                 accountID,
			WrappedFieldKey:    "mk1:aes-gcm:d3JhcHBlZA",
			EncryptedGivenName: []byte("enc:Jane"),
			EncryptedPhone:     []byte("enc:+15550100"),
		}

		f.accountRepo.On("GetByID", ctx, accountID).Return(stored, nil)
		f.fieldCipher.On("UnwrapKey", stored.WrappedFieldKey).Return(testFieldKey, nil)
		f.fieldCipher.On("EncryptField", []byte("Janet"), testFieldKey).Return([]byte{}, nil)
		f.fieldCipher.On("DecryptField", mock.Anything, testFieldKey).Return(nil, nil)
		f.accountRepo.On("UpdateProfile", ctx, stored).Return(nil)

		newName := "Janet"
		profile, err := f.useCase.UpdateProfile(ctx, accountID, UpdateProfileInput{
			GivenName: &newName,
		})

		require.NoError(t, err)
		assert.Equal(t, "Janet", profile.GivenName)
		assert.Equal(t, "+15550100", profile.Phone)
		assert.Equal(t, []byte("enc:+15550100"), stored.EncryptedPhone)
	})

	t.Run("EmptyStringClearsField", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.Must(uuid.NewV7())

		stored := &domain.Account{
			ID:              accountID,
			WrappedFieldKey: "mk1:aes-gcm:d3JhcHBlZA",
			EncryptedPhone:  []byte("enc:+15550100"),
		}

		f.accountRepo.On("GetByID", ctx, accountID).Return(stored, nil)
		f.fieldCipher.On("UnwrapKey", stored.WrappedFieldKey).Return(testFieldKey, nil)
		f.accountRepo.On("UpdateProfile", ctx, stored).Return(nil)

		empty := ""
		profile, err := f.useCase.UpdateProfile(ctx, accountID, UpdateProfileInput{
			Phone: &empty,
		})

		require.NoError(t, err)
		assert.Empty(t, profile.Phone)
		assert.Nil(t, stored.EncryptedPhone)
		f.fieldCipher.AssertNotCalled(t, "EncryptField")
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.Must(uuid.NewV7())

		f.accountRepo.On("GetByID", ctx, accountID).Return(nil, domain.ErrAccountNotFound)

		profile, err := f.useCase.UpdateProfile(ctx, accountID, UpdateProfileInput{})

		assert.Nil(t, profile)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}
