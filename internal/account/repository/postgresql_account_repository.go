// Package repository provides data persistence implementations for account entities.
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

// PostgreSQLAccountRepository handles account persistence for PostgreSQL
type PostgreSQLAccountRepository struct {
	db *sql.DB
}

// NewPostgreSQLAccountRepository creates a new PostgreSQLAccountRepository
func NewPostgreSQLAccountRepository(db *sql.DB) *PostgreSQLAccountRepository {
	return &PostgreSQLAccountRepository{
		db: db,
	}
}

// Create inserts a new account. All columns, including the wrapped field key
// and the encrypted profile blobs, are written in a single atomic insert.
func (r *PostgreSQLAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO accounts (id, email, password_hash, wrapped_field_key,
			  encrypted_given_name, encrypted_family_name, encrypted_phone, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.WrappedFieldKey,
		account.EncryptedGivenName,
		account.EncryptedFamilyName,
		account.EncryptedPhone,
	)
	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrEmailAlreadyTaken
		}
		return apperrors.Wrap(err, "failed to create account")
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *PostgreSQLAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, password_hash, wrapped_field_key,
			  encrypted_given_name, encrypted_family_name, encrypted_phone, created_at, updated_at
			  FROM accounts WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
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
		return nil, apperrors.Wrap(err, "failed to get account by id")
	}

	return &account, nil
}

// GetByEmail retrieves an account by email (exact match on the unique column)
func (r *PostgreSQLAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, password_hash, wrapped_field_key,
			  encrypted_given_name, encrypted_family_name, encrypted_phone, created_at, updated_at
			  FROM accounts WHERE email = $1`

	err := querier.QueryRowContext(ctx, query, email).Scan(
		&account.ID,
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
		return nil, apperrors.Wrap(err, "failed to get account by email")
	}

	return &account, nil
}

// UpdateProfile persists the encrypted profile columns. The wrapped field key
// and password hash are deliberately not touched here.
func (r *PostgreSQLAccountRepository) UpdateProfile(ctx context.Context, account *domain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE accounts
			  SET encrypted_given_name = $1,
			      encrypted_family_name = $2,
			      encrypted_phone = $3,
			      updated_at = NOW()
			  WHERE id = $4`

	result, err := querier.ExecContext(ctx, query,
		account.EncryptedGivenName,
		account.EncryptedFamilyName,
		account.EncryptedPhone,
		account.ID,
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

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
