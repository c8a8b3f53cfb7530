package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/account/domain"
	"github.com/parlorchat/parlor/internal/database"

	apperrors "github.com/parlorchat/parlor/internal/errors"
)

// MySQLAccountRepository handles account persistence for MySQL
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQLAccountRepository
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{
		db: db,
	}
}

// Create inserts a new account
func (r *MySQLAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO accounts (id, email, password_hash, wrapped_field_key,
			  encrypted_given_name, encrypted_family_name, encrypted_phone, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		account.ID.String(),
		account.Email,
		account.PasswordHash,
		account.WrappedFieldKey,
		account.EncryptedGivenName,
		account.EncryptedFamilyName,
		account.EncryptedPhone,
	)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return domain.ErrEmailAlreadyTaken
		}
		return apperrors.Wrap(err, "failed to create account")
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *MySQLAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, email, password_hash, wrapped_field_key,
			  encrypted_given_name, encrypted_family_name, encrypted_phone, created_at, updated_at
			  FROM accounts WHERE id = ?`

	return r.scanAccount(ctx, query, id.String())
}

// GetByEmail retrieves an account by email
func (r *MySQLAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT id, email, password_hash, wrapped_field_key,
			  encrypted_given_name, encrypted_family_name, encrypted_phone, created_at, updated_at
			  FROM accounts WHERE email = ?`

	return r.scanAccount(ctx, query, email)
}

// UpdateProfile persists the encrypted profile columns
func (r *MySQLAccountRepository) UpdateProfile(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE accounts
			  SET encrypted_given_name = ?,
			      encrypted_family_name = ?,
			      encrypted_phone = ?,
			      updated_at = NOW()
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query,
		account.EncryptedGivenName,
		account.EncryptedFamilyName,
		account.EncryptedPhone,
		account.ID.String(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update account profile")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check update result")
	}
	if rows == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *MySQLAccountRepository) scanAccount(
	ctx context.Context,
	query string,
	arg any,
) (*domain.Account, error) {
	var account domain.Account
	var id string
	querier := database.GetTx(ctx, r.db)

	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&id,
		&account.Email,
		&account.PasswordHash,
		&account.WrappedFieldKey,
		&account.EncryptedGivenName,
		&account.EncryptedFamilyName,
		&account.EncryptedPhone,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get account")
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse account id")
	}
	account.ID = parsed

	return &account, nil
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate entry violation (error 1062)
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
