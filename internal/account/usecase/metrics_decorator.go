package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/account/domain"
	"github.com/parlorchat/parlor/internal/metrics"
)

// accountUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type accountUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewAccountUseCaseWithMetrics wraps an account UseCase with metrics recording.
func NewAccountUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &accountUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the counter and duration for a completed operation
func (a *accountUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "account", operation, status)
	a.metrics.RecordDuration(ctx, "account", operation, time.Since(start), status)
}

// Register records metrics for account registration operations.
func (a *accountUseCaseWithMetrics) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	start := time.Now()
	account, err := a.next.Register(ctx, input)
	a.record(ctx, "register", start, err)
	return account, err
}

// VerifyCredentials records metrics for credential verification operations.
func (a *accountUseCaseWithMetrics) VerifyCredentials(
	ctx context.Context,
	email, password string,
) (*domain.Account, error) {
	start := time.Now()
	account, err := a.next.VerifyCredentials(ctx, email, password)
	a.record(ctx, "verify_credentials", start, err)
	return account, err
}

// GetProfile records metrics for profile read operations.
func (a *accountUseCaseWithMetrics) GetProfile(ctx context.Context, accountID uuid.UUID) (*domain.Profile, error) {
	start := time.Now()
	profile, err := a.next.GetProfile(ctx, accountID)
	a.record(ctx, "get_profile", start, err)
	return profile, err
}

// UpdateProfile records metrics for profile update operations.
func (a *accountUseCaseWithMetrics) UpdateProfile(
	ctx context.Context,
	accountID uuid.UUID,
	input UpdateProfileInput,
) (*domain.Profile, error) {
	start := time.Now()
	profile, err := a.next.UpdateProfile(ctx, accountID, input)
	a.record(ctx, "update_profile", start, err)
	return profile, err
}
