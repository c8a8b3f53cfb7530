// Package repository provides the Redis-backed session store.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/parlorchat/parlor/internal/session/domain"

	apperrors "github.com/parlorchat/parlor/internal/errors"
)

// sessionKeyPrefix namespaces session keys within the Redis keyspace.
const sessionKeyPrefix = "session"

// scanBatchSize is the COUNT hint used when scanning an account's sessions.
const scanBatchSize = 100

// RedisSessionRepository stores sessions in Redis, one key per session,
// with the store's native TTL handling expiry eviction. Every operation is
// bounded by opTimeout so a slow store degrades into an explicit
// ErrSessionStoreUnavailable instead of a hung request.
type RedisSessionRepository struct {
	client    redis.UniversalClient
	opTimeout time.Duration
}

// NewRedisSessionRepository creates a new RedisSessionRepository
func NewRedisSessionRepository(client redis.UniversalClient, opTimeout time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{
		client:    client,
		opTimeout: opTimeout,
	}
}

// sessionKey builds the storage key for a session
func sessionKey(accountID uuid.UUID, tokenHash string) string {
	return fmt.Sprintf("%s:%s:%s", sessionKeyPrefix, accountID, tokenHash)
}

// Put stores a session with a TTL matching its expiry deadline
func (r *RedisSessionRepository) Put(ctx context.Context, session *domain.Session) error {
	ctx, cancel := r.boundedCtx(ctx)
	defer cancel()

	payload, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "session already expired")
	}

	key := sessionKey(session.AccountID, session.TokenHash)
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return storeError(err, "failed to store session")
	}
	return nil
}

// Get retrieves a session by account and token hash. A missing key returns
// (nil, nil); the caller decides what a miss means.
func (r *RedisSessionRepository) Get(
	ctx context.Context,
	accountID uuid.UUID,
	tokenHash string,
) (*domain.Session, error) {
	ctx, cancel := r.boundedCtx(ctx)
	defer cancel()

	payload, err := r.client.Get(ctx, sessionKey(accountID, tokenHash)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, storeError(err, "failed to get session")
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session")
	}
	return &session, nil
}

// Touch extends a session's deadline, rewriting both the stored value and
// the key TTL. A missing session returns (nil, nil).
func (r *RedisSessionRepository) Touch(
	ctx context.Context,
	accountID uuid.UUID,
	tokenHash string,
	expiresAt time.Time,
) (*domain.Session, error) {
	session, err := r.Get(ctx, accountID, tokenHash)
	if err != nil || session == nil {
		return nil, err
	}

	session.ExpiresAt = expiresAt

	if err := r.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *RedisSessionRepository) Delete(ctx context.Context, accountID uuid.UUID, tokenHash string) error {
	ctx, cancel := r.boundedCtx(ctx)
	defer cancel()

	if err := r.client.Del(ctx, sessionKey(accountID, tokenHash)).Err(); err != nil {
		return storeError(err, "failed to delete session")
	}
	return nil
}

// ListByAccount returns all live sessions belonging to an account
func (r *RedisSessionRepository) ListByAccount(
	ctx context.Context,
	accountID uuid.UUID,
) ([]*domain.Session, error) {
	ctx, cancel := r.boundedCtx(ctx)
	defer cancel()

	pattern := fmt.Sprintf("%s:%s:*", sessionKeyPrefix, accountID)

	var sessions []*domain.Session
	iter := r.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		payload, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				// Evicted between SCAN and GET
				continue
			}
			return nil, storeError(err, "failed to get session")
		}

		var session domain.Session
		if err := json.Unmarshal(payload, &session); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal session")
		}
		sessions = append(sessions, &session)
	}
	if err := iter.Err(); err != nil {
		return nil, storeError(err, "failed to scan sessions")
	}

	return sessions, nil
}

// DeleteAllForAccount removes every session belonging to an account and
// returns the number of sessions removed
func (r *RedisSessionRepository) DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	ctx, cancel := r.boundedCtx(ctx)
	defer cancel()

	pattern := fmt.Sprintf("%s:%s:*", sessionKeyPrefix, accountID)

	var deleted int64
	iter := r.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		n, err := r.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return deleted, storeError(err, "failed to delete session")
		}
		deleted += n
	}
	if err := iter.Err(); err != nil {
		return deleted, storeError(err, "failed to scan sessions")
	}

	return deleted, nil
}

// boundedCtx applies the per-operation timeout when one is configured
func (r *RedisSessionRepository) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// storeError maps transport-level failures to ErrSessionStoreUnavailable
func storeError(err error, msg string) error {
	return apperrors.Wrap(domain.ErrSessionStoreUnavailable, msg+": "+err.Error())
}
