// Package usecase implements the session business logic: issuing sessions at
// login, authorizing bearer tokens, refreshing, and revocation.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	accountDomain "github.com/parlorchat/parlor/internal/account/domain"
	apperrors "github.com/parlorchat/parlor/internal/errors"
	"github.com/parlorchat/parlor/internal/session/domain"
	"github.com/parlorchat/parlor/internal/session/service"
)

// Config holds session use case configuration
type Config struct {
	// TTL is the lifetime of an ordinary session.
	TTL time.Duration
	// RememberTTL is the extended lifetime granted when the client asks to
	// stay signed in.
	RememberTTL time.Duration
}

// IssueInput contains the input data for issuing a session at login
type IssueInput struct {
	Email     string
	Password  string
	Remember  bool
	UserAgent string
	IP        string
}

// IssuedSession pairs a freshly stored session with its plain token. The
// plain token exists only in this value; it is never persisted.
type IssuedSession struct {
	Token   string
	Session *domain.Session
}

// UseCase defines the interface for session business logic operations
type UseCase interface {
	Issue(ctx context.Context, input IssueInput) (*IssuedSession, error)
	Authorize(ctx context.Context, accountID uuid.UUID, plainToken string) (*domain.Session, error)
	Refresh(ctx context.Context, accountID uuid.UUID, plainToken string) (*domain.Session, error)
	Revoke(ctx context.Context, accountID uuid.UUID, plainToken string) error
	RevokeAll(ctx context.Context, accountID uuid.UUID) (int64, error)
	List(ctx context.Context, accountID uuid.UUID) ([]*domain.Session, error)
}

// AccountVerifier checks login credentials. The account use case implements it.
type AccountVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*accountDomain.Account, error)
}

// SessionRepository interface defines session store operations
type SessionRepository interface {
	Put(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, accountID uuid.UUID, tokenHash string) (*domain.Session, error)
	Touch(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.Session, error)
	Delete(ctx context.Context, accountID uuid.UUID, tokenHash string) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.Session, error)
	DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// SessionUseCase handles session-related business logic
type SessionUseCase struct {
	config       Config
	sessionRepo  SessionRepository
	tokenService service.TokenService
	verifier     AccountVerifier
	logger       *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewSessionUseCase creates a new SessionUseCase
func NewSessionUseCase(
	config Config,
	sessionRepo SessionRepository,
	tokenService service.TokenService,
	verifier AccountVerifier,
	logger *slog.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		config:       config,
		sessionRepo:  sessionRepo,
		tokenService: tokenService,
		verifier:     verifier,
		logger:       logger,
		now:          time.Now,
	}
}

// ttlFor returns the session lifetime for the given remember flag
func (uc *SessionUseCase) ttlFor(remember bool) time.Duration {
	if remember && uc.config.RememberTTL > 0 {
		return uc.config.RememberTTL
	}
	return uc.config.TTL
}

// Issue verifies credentials and stores a new session, returning the plain
// token exactly once. Credential failures surface as ErrInvalidCredentials;
// a store outage surfaces as ErrSessionStoreUnavailable so the login is
// rejected rather than silently unauthenticated.
func (uc *SessionUseCase) Issue(ctx context.Context, input IssueInput) (*IssuedSession, error) {
	account, err := uc.verifier.VerifyCredentials(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	plainToken, tokenHash, err := uc.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := uc.now()
	session := &domain.Session{
		AccountID: account.ID,
		TokenHash: tokenHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(uc.ttlFor(input.Remember)),
		Remember:  input.Remember,
		UserAgent: input.UserAgent,
		IP:        input.IP,
	}

	if err := uc.sessionRepo.Put(ctx, session); err != nil {
		return nil, err
	}

	if uc.logger != nil {
		uc.logger.Info("session issued",
			slog.String("account_id", account.ID.String()),
			slog.Bool("remember", input.Remember),
			slog.Time("expires_at", session.ExpiresAt),
		)
	}

	return &IssuedSession{Token: plainToken, Session: session}, nil
}

// Authorize validates a bearer token against the claimed account. It never
// extends the session lifetime. Missing, expired, and mismatched sessions
// all return ErrSessionInvalid; a store outage propagates as
// ErrSessionStoreUnavailable, failing the request closed.
func (uc *SessionUseCase) Authorize(
	ctx context.Context,
	accountID uuid.UUID,
	plainToken string,
) (*domain.Session, error) {
	if plainToken == "" || accountID == uuid.Nil {
		return nil, domain.ErrAuthRequired
	}

	tokenHash := uc.tokenService.HashToken(plainToken)

	session, err := uc.sessionRepo.Get(ctx, accountID, tokenHash)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionInvalid
	}

	// The key already binds account and token, but the stored value is
	// rechecked so a corrupted entry cannot authenticate anyone.
	if session.AccountID != accountID ||
		!uc.tokenService.CompareHash(session.TokenHash, tokenHash) {
		return nil, domain.ErrSessionInvalid
	}

	if session.Expired(uc.now()) {
		// The store's TTL should have evicted this already; remove it so it
		// cannot linger.
		if err := uc.sessionRepo.Delete(ctx, accountID, tokenHash); err != nil && uc.logger != nil {
			uc.logger.Warn("failed to delete expired session", slog.Any("error", err))
		}
		return nil, domain.ErrSessionInvalid
	}

	return session, nil
}

// Refresh extends an authorized session's deadline by its TTL from now.
// Unlike Authorize, this is the only path that moves the deadline.
func (uc *SessionUseCase) Refresh(
	ctx context.Context,
	accountID uuid.UUID,
	plainToken string,
) (*domain.Session, error) {
	session, err := uc.Authorize(ctx, accountID, plainToken)
	if err != nil {
		return nil, err
	}

	expiresAt := uc.now().Add(uc.ttlFor(session.Remember))
	refreshed, err := uc.sessionRepo.Touch(ctx, accountID, session.TokenHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		// Evicted between the authorize read and the touch.
		return nil, domain.ErrSessionInvalid
	}

	return refreshed, nil
}

// Revoke deletes the session for the given token. Revoking an already
// absent session succeeds, so logout is idempotent.
func (uc *SessionUseCase) Revoke(ctx context.Context, accountID uuid.UUID, plainToken string) error {
	if plainToken == "" || accountID == uuid.Nil {
		return domain.ErrAuthRequired
	}

	tokenHash := uc.tokenService.HashToken(plainToken)
	if err := uc.sessionRepo.Delete(ctx, accountID, tokenHash); err != nil {
		return err
	}

	if uc.logger != nil {
		uc.logger.Info("session revoked", slog.String("account_id", accountID.String()))
	}
	return nil
}

// RevokeAll deletes every session belonging to the account and returns the
// number of sessions removed
func (uc *SessionUseCase) RevokeAll(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if accountID == uuid.Nil {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "account id is required")
	}

	deleted, err := uc.sessionRepo.DeleteAllForAccount(ctx, accountID)
	if err != nil {
		return deleted, err
	}

	if uc.logger != nil {
		uc.logger.Info("all sessions revoked",
			slog.String("account_id", accountID.String()),
			slog.Int64("count", deleted),
		)
	}
	return deleted, nil
}

// List returns the account's live sessions, filtering out any entry whose
// deadline has passed but not yet been evicted
func (uc *SessionUseCase) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Session, error) {
	sessions, err := uc.sessionRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	live := make([]*domain.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.Expired(now) {
			continue
		}
		live = append(live, session)
	}
	return live, nil
}
