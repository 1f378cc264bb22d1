package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPair(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute, time.Hour)

	pair, err := tm.GeneratePair("user-1", "alice")
	require.NoError(t, err)

	claims, err := tm.Validate(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)

	claims, err = tm.ValidateRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)

	_, err = tm.Validate(pair.Refresh)
	assert.Error(t, err, "refresh token must not be accepted as access token")

	_, err = tm.ValidateRefresh(pair.Access)
	assert.Error(t, err, "access token must not be accepted as refresh token")
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute, time.Hour)

	token, err := tm.Generate("user-1", "alice")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("one", time.Minute, time.Hour).Generate("user-1", "alice")
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Minute, time.Hour).Validate(token)
	assert.Error(t, err)
}
