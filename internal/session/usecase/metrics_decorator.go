package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/parlorchat/parlor/internal/metrics"
	"github.com/parlorchat/parlor/internal/session/domain"
)

// sessionUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a session UseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &sessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the counter and duration for a completed operation
func (s *sessionUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "session", operation, status)
	s.metrics.RecordDuration(ctx, "session", operation, time.Since(start), status)
}

// Issue records metrics for login/session issuance operations.
func (s *sessionUseCaseWithMetrics) Issue(ctx context.Context, input IssueInput) (*IssuedSession, error) {
	start := time.Now()
	issued, err := s.next.Issue(ctx, input)
	s.record(ctx, "issue", start, err)
	return issued, err
}

// Authorize records metrics for token authorization operations.
func (s *sessionUseCaseWithMetrics) Authorize(
	ctx context.Context,
	accountID uuid.UUID,
	plainToken string,
) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.Authorize(ctx, accountID, plainToken)
	s.record(ctx, "authorize", start, err)
	return session, err
}

// Refresh records metrics for session refresh operations.
func (s *sessionUseCaseWithMetrics) Refresh(
	ctx context.Context,
	accountID uuid.UUID,
	plainToken string,
) (*domain.Session, error) {
	start := time.Now()
	session, err := s.next.Refresh(ctx, accountID, plainToken)
	s.record(ctx, "refresh", start, err)
	return session, err
}

// Revoke records metrics for logout operations.
func (s *sessionUseCaseWithMetrics) Revoke(ctx context.Context, accountID uuid.UUID, plainToken string) error {
	start := time.Now()
	err := s.next.Revoke(ctx, accountID, plainToken)
	s.record(ctx, "revoke", start, err)
	return err
}

// RevokeAll records metrics for bulk revocation operations.
func (s *sessionUseCaseWithMetrics) RevokeAll(ctx context.Context, accountID uuid.UUID) (int64, error) {
	start := time.Now()
	deleted, err := s.next.RevokeAll(ctx, accountID)
	s.record(ctx, "revoke_all", start, err)
	return deleted, err
}

// List records metrics for session listing operations.
func (s *sessionUseCaseWithMetrics) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Session, error) {
	start := time.Now()
	sessions, err := s.next.List(ctx, accountID)
	s.record(ctx, "list", start, err)
	return sessions, err
}
