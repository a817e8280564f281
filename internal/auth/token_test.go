package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sales-assistant/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	user := &domain.User{ID: "u-1", Username: "alice", Role: domain.RoleAdmin}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("other", 60).GenerateToken(&domain.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 60).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken(&domain.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 1).ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrInvalidCredentials)
}
