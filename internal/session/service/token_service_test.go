package service

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateToken(t *testing.T) {
	svc := NewTokenService()

	plainToken, tokenHash, err := svc.GenerateToken()
	require.NoError(t, err)

	t.Run("TokenIs32RandomBytes", func(t *testing.T) {
		decoded, err := base64.URLEncoding.DecodeString(plainToken)
		require.NoError(t, err)
		assert.Len(t, decoded, 32)
	})

	t.Run("HashIsHexSHA256OfToken", func(t *testing.T) {
		assert.Equal(t, svc.HashToken(plainToken), tokenHash)

		raw, err := hex.DecodeString(tokenHash)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
	})

	t.Run("TokensAreUnique", func(t *testing.T) {
		other, otherHash, err := svc.GenerateToken()
		require.NoError(t, err)
		assert.NotEqual(t, plainToken, other)
		assert.NotEqual(t, tokenHash, otherHash)
	})
}

func TestTokenService_CompareHash(t *testing.T) {
	svc := NewTokenService()

	_, tokenHash, err := svc.GenerateToken()
	require.NoError(t, err)

	assert.True(t, svc.CompareHash(tokenHash, tokenHash))
	assert.False(t, svc.CompareHash(tokenHash, svc.HashToken("other")))
	assert.False(t, svc.CompareHash(tokenHash, ""))
}
