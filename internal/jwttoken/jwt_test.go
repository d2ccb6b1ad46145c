package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "dirsync")

	token, err := svc.GenerateToken("ops-alice", time.Hour)
	require.NoError(t, err)

	operator, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops-alice", operator)
}

func TestValidateRejections(t *testing.T) {
	svc := NewService("test-signing-key", "dirsync")

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		assert.Error(t, err)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService("different-key", "dirsync")
		token, err := other.GenerateToken("ops-alice", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewService("test-signing-key", "someone-else")
		token, err := other.GenerateToken("ops-alice", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateToken("ops-alice", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})
}
