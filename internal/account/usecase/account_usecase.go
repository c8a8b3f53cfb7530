// Package usecase implements the account business logic: registration,
// credential verification, and encrypted profile access.
package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/account/domain"
	"github.com/parlorchat/parlor/internal/account/service"
	cryptoDomain "github.com/parlorchat/parlor/internal/crypto/domain"
	cryptoService "github.com/parlorchat/parlor/internal/crypto/service"
	"github.com/parlorchat/parlor/internal/database"
	apperrors "github.com/parlorchat/parlor/internal/errors"
	outboxDomain "github.com/parlorchat/parlor/internal/outbox/domain"
	appValidation "github.com/parlorchat/parlor/internal/validation"
)

// RegisterInput contains the input data for account registration. Profile
// fields are optional and encrypted before they ever reach storage.
type RegisterInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Phone      string `json:"phone"`
}

// UpdateProfileInput carries a partial profile update. A nil field is left
// untouched; a pointer to the empty string clears the field.
type UpdateProfileInput struct {
	GivenName  *string `json:"given_name"`
	FamilyName *string `json:"family_name"`
	Phone      *string `json:"phone"`
}

// UseCase defines the interface for account business logic operations
type UseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Account, error)
	VerifyCredentials(ctx context.Context, email, password string) (*domain.Account, error)
	GetProfile(ctx context.Context, accountID uuid.UUID) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, accountID uuid.UUID, input UpdateProfileInput) (*domain.Profile, error)
}

// AccountRepository interface defines account repository operations
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, account *domain.Account) error
}

// OutboxEventRepository interface defines the outbox operations this use case needs
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// AccountUseCase handles account-related business logic
type AccountUseCase struct {
	txManager       database.TxManager
	accountRepo     AccountRepository
	outboxRepo      OutboxEventRepository
	passwordService service.PasswordService
	fieldCipher     cryptoService.FieldCipher
	passwordPolicy  appValidation.PasswordStrength
	logger          *slog.Logger

	// dummyHash absorbs a password comparison when the email is unknown, so
	// the unknown-email and wrong-password paths take comparable time.
	dummyHash string
}

// NewAccountUseCase creates a new AccountUseCase
func NewAccountUseCase(
	txManager database.TxManager,
	accountRepo AccountRepository,
	outboxRepo OutboxEventRepository,
	passwordService service.PasswordService,
	fieldCipher cryptoService.FieldCipher,
	passwordPolicy appValidation.PasswordStrength,
	logger *slog.Logger,
) (*AccountUseCase, error) {
	random := make([]byte, 18)
	if _, err := rand.Read(random); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate dummy password")
	}
	dummyHash, err := passwordService.HashPassword(base64.RawURLEncoding.EncodeToString(random))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash dummy password")
	}

	return &AccountUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		outboxRepo:      outboxRepo,
		passwordService: passwordService,
		fieldCipher:     fieldCipher,
		passwordPolicy:  passwordPolicy,
		logger:          logger,
		dummyHash:       dummyHash,
	}, nil
}

// validateRegisterInput validates the registration input using jellydator/validation
func (uc *AccountUseCase) validateRegisterInput(input RegisterInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(uc.passwordPolicy.MinLength, 128).Error("password length out of range"),
			uc.passwordPolicy,
		),
		validation.Field(&input.GivenName,
			validation.Length(0, 255).Error("given name must be at most 255 characters"),
		),
		validation.Field(&input.FamilyName,
			validation.Length(0, 255).Error("family name must be at most 255 characters"),
		),
		validation.Field(&input.Phone,
			validation.Length(0, 32).Error("phone must be at most 32 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// validateUpdateProfileInput validates a partial profile update
func (uc *AccountUseCase) validateUpdateProfileInput(input UpdateProfileInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.GivenName,
			validation.Length(0, 255).Error("given name must be at most 255 characters"),
		),
		validation.Field(&input.FamilyName,
			validation.Length(0, 255).Error("family name must be at most 255 characters"),
		),
		validation.Field(&input.Phone,
			validation.Length(0, 32).Error("phone must be at most 32 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Register creates a new account with a freshly generated field key and
// emits an account.registered event in the same transaction
func (uc *AccountUseCase) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	if err := uc.validateRegisterInput(input); err != nil {
		return nil, err
	}

	passwordHash, err := uc.passwordService.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	fieldKey, err := uc.fieldCipher.GenerateKey()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate field key")
	}
	defer cryptoDomain.Zero(fieldKey)

	wrappedKey, err := uc.fieldCipher.WrapKey(fieldKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to wrap field key")
	}

	account := &domain.Account{
		ID:              uuid.Must(uuid.NewV7()),
		Email:           strings.TrimSpace(strings.ToLower(input.Email)),
		PasswordHash:    passwordHash,
		WrappedFieldKey: wrappedKey,
	}

	if account.EncryptedGivenName, err = uc.encryptOptional(input.GivenName, fieldKey); err != nil {
		return nil, err
	}
	if account.EncryptedFamilyName, err = uc.encryptOptional(input.FamilyName, fieldKey); err != nil {
		return nil, err
	}
	if account.EncryptedPhone, err = uc.encryptOptional(input.Phone, fieldKey); err != nil {
		return nil, err
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.accountRepo.Create(ctx, account); err != nil {
			return err
		}

		eventPayload := map[string]interface{}{
			"account_id": account.ID,
			"email":      account.Email,
		}
		payloadJSON, err := json.Marshal(eventPayload)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event payload")
		}

		outboxEvent := &outboxDomain.OutboxEvent{
			ID:        uuid.Must(uuid.NewV7()),
			EventType: outboxDomain.EventTypeAccountRegistered,
			Payload:   string(payloadJSON),
			Status:    outboxDomain.OutboxEventStatusPending,
			Retries:   0,
		}

		if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
			return apperrors.Wrap(err, "failed to create outbox event")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// VerifyCredentials checks an email/password pair against stored credentials.
// Unknown email and wrong password both return ErrInvalidCredentials; the
// distinction only surfaces in debug logs.
func (uc *AccountUseCase) VerifyCredentials(
	ctx context.Context,
	email, password string,
) (*domain.Account, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))

	account, err := uc.accountRepo.GetByEmail(ctx, normalized)
	if err != nil {
		if apperrors.Is(err, domain.ErrAccountNotFound) {
			uc.passwordService.ComparePassword(password, uc.dummyHash)
			if uc.logger != nil {
				uc.logger.Debug("login attempt for unknown email")
			}
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !uc.passwordService.ComparePassword(password, account.PasswordHash) {
		if uc.logger != nil {
			uc.logger.Debug("login attempt with wrong password",
				slog.String("account_id", account.ID.String()),
			)
		}
		return nil, domain.ErrInvalidCredentials
	}

	return account, nil
}

// GetProfile returns the decrypted profile fields of an account
func (uc *AccountUseCase) GetProfile(ctx context.Context, accountID uuid.UUID) (*domain.Profile, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	fieldKey, err := uc.fieldCipher.UnwrapKey(account.WrappedFieldKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unwrap field key")
	}
	defer cryptoDomain.Zero(fieldKey)

	return uc.decryptProfile(account, fieldKey)
}

// UpdateProfile re-encrypts the supplied fields under the account's existing
// field key and returns the resulting profile. Absent fields keep their
// current ciphertext untouched.
func (uc *AccountUseCase) UpdateProfile(
	ctx context.Context,
	accountID uuid.UUID,
	input UpdateProfileInput,
) (*domain.Profile, error) {
	if err := uc.validateUpdateProfileInput(input); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	fieldKey, err := uc.fieldCipher.UnwrapKey(account.WrappedFieldKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to unwrap field key")
	}
	defer cryptoDomain.Zero(fieldKey)

	if input.GivenName != nil {
		if account.EncryptedGivenName, err = uc.encryptOptional(*input.GivenName, fieldKey); err != nil {
			return nil, err
		}
	}
	if input.FamilyName != nil {
		if account.EncryptedFamilyName, err = uc.encryptOptional(*input.FamilyName, fieldKey); err != nil {
			return nil, err
		}
	}
	if input.Phone != nil {
		if account.EncryptedPhone, err = uc.encryptOptional(*input.Phone, fieldKey); err != nil {
			return nil, err
		}
	}

	if err := uc.accountRepo.UpdateProfile(ctx, account); err != nil {
		return nil, err
	}

	return uc.decryptProfile(account, fieldKey)
}

// encryptOptional encrypts a field value, mapping the empty string to a nil
// blob so cleared fields leave no ciphertext behind
func (uc *AccountUseCase) encryptOptional(value string, fieldKey []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	blob, err := uc.fieldCipher.EncryptField([]byte(trimmed), fieldKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt profile field")
	}
	return blob, nil
}

// decryptProfile opens every present ciphertext blob with the account key
func (uc *AccountUseCase) decryptProfile(account *domain.Account, fieldKey []byte) (*domain.Profile, error) {
	var profile domain.Profile

	decrypt := func(blob []byte, dst *string) error {
		if blob == nil {
			return nil
		}
		plaintext, err := uc.fieldCipher.DecryptField(blob, fieldKey)
		if err != nil {
			return apperrors.Wrap(err, "failed to decrypt profile field")
		}
		*dst = string(plaintext)
		return nil
	}

	if err := decrypt(account.EncryptedGivenName, &profile.GivenName); err != nil {
		return nil, err
	}
	if err := decrypt(account.EncryptedFamilyName, &profile.FamilyName); err != nil {
		return nil, err
	}
	if err := decrypt(account.EncryptedPhone, &profile.Phone); err != nil {
		return nil, err
	}

	return &profile, nil
}
