package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/parlorchat/parlor/internal/errors"
	"github.com/parlorchat/parlor/internal/session/domain"
)

func newTestRepository(t *testing.T) (*RedisSessionRepository, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisSessionRepository(client, time.Second), server
}

func testSession(accountID uuid.UUID, tokenHash string) *domain.Session {
	now := time.Now().Truncate(time.Second)
	return &domain.Session{
		AccountID: accountID,
		TokenHash: tokenHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestRedisSessionRepository_PutAndGet(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV7())

	t.Run("RoundTrip", func(t *testing.T) {
		session := testSession(accountID, "hash-1")
		require.NoError(t, repo.Put(ctx, session))

		got, err := repo.Get(ctx, accountID, "hash-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.AccountID, got.AccountID)
		assert.Equal(t, session.TokenHash, got.TokenHash)
		assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("MissReturnsNil", func(t *testing.T) {
		got, err := repo.Get(ctx, accountID, "no-such-hash")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("WrongAccountIsAMiss", func(t *testing.T) {
		session := testSession(accountID, "hash-2")
		require.NoError(t, repo.Put(ctx, session))

		got, err := repo.Get(ctx, uuid.Must(uuid.NewV7()), "hash-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("AlreadyExpiredIsRejected", func(t *testing.T) {
		session := testSession(accountID, "hash-3")
		session.ExpiresAt = time.Now().Add(-time.Minute)

		err := repo.Put(ctx, session)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestRedisSessionRepository_TTLEviction(t *testing.T) {
	repo, server := newTestRepository(t)
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV7())

	session := testSession(accountID, "hash-ttl")
	session.ExpiresAt = time.Now().Add(time.Minute)
	require.NoError(t, repo.Put(ctx, session))

	server.FastForward(2 * time.Minute)

	got, err := repo.Get(ctx, accountID, "hash-ttl")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionRepository_Touch(t *testing.T) {
	repo, server := newTestRepository(t)
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV7())

	t.Run("ExtendsDeadlineAndTTL", func(t *testing.T) {
		session := testSession(accountID, "hash-touch")
		require.NoError(t, repo.Put(ctx, session))

		newDeadline := time.Now().Add(3 * time.Hour).Truncate(time.Second)
		touched, err := repo.Touch(ctx, accountID, "hash-touch", newDeadline)
		require.NoError(t, err)
		require.NotNil(t, touched)
		assert.True(t, newDeadline.Equal(touched.ExpiresAt))

		// Survives past the original one-hour deadline
		server.FastForward(2 * time.Hour)
		got, err := repo.Get(ctx, accountID, "hash-touch")
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("MissingSessionReturnsNil", func(t *testing.T) {
		touched, err := repo.Touch(ctx, accountID, "gone", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Nil(t, touched)
	})
}

func TestRedisSessionRepository_Delete(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV7())

	session := testSession(accountID, "hash-del")
	require.NoError(t, repo.Put(ctx, session))

	require.NoError(t, repo.Delete(ctx, accountID, "hash-del"))

	got, err := repo.Get(ctx, accountID, "hash-del")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Idempotent
	assert.NoError(t, repo.Delete(ctx, accountID, "hash-del"))
}

func TestRedisSessionRepository_ListByAccount(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV7())
	otherID := uuid.Must(uuid.NewV7())

	require.NoError(t, repo.Put(ctx, testSession(accountID, "hash-a")))
	require.NoError(t, repo.Put(ctx, testSession(accountID, "hash-b")))
	require.NoError(t, repo.Put(ctx, testSession(otherID, "hash-c")))

	sessions, err := repo.ListByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, accountID, s.AccountID)
	}

	empty, err := repo.ListByAccount(ctx, uuid.Must(uuid.NewV7()))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRedisSessionRepository_DeleteAllForAccount(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV7())
	otherID := uuid.Must(uuid.NewV7())

	require.NoError(t, repo.Put(ctx, testSession(accountID, "hash-a")))
	require.NoError(t, repo.Put(ctx, testSession(accountID, "hash-b")))
	require.NoError(t, repo.Put(ctx, testSession(otherID, "hash-c")))

	deleted, err := repo.DeleteAllForAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.ListByAccount(ctx, otherID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRedisSessionRepository_StoreOutage(t *testing.T) {
	repo, server := newTestRepository(t)
	ctx := context.Background()
	accountID := uuid.Must(uuid.NewV7())

	session := testSession(accountID, "hash-down")
	require.NoError(t, repo.Put(ctx, session))

	server.Close()

	t.Run("Get", func(t *testing.T) {
		_, err := repo.Get(ctx, accountID, "hash-down")
		assert.ErrorIs(t, err, domain.ErrSessionStoreUnavailable)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	})

	t.Run("Put", func(t *testing.T) {
		err := repo.Put(ctx, testSession(accountID, "hash-new"))
		assert.ErrorIs(t, err, domain.ErrSessionStoreUnavailable)
	})

	t.Run("Delete", func(t *testing.T) {
		err := repo.Delete(ctx, accountID, "hash-down")
		assert.ErrorIs(t, err, domain.ErrSessionStoreUnavailable)
	})

	t.Run("List", func(t *testing.T) {
		_, err := repo.ListByAccount(ctx, accountID)
		assert.ErrorIs(t, err, domain.ErrSessionStoreUnavailable)
	})
}
