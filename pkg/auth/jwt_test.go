package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() JWTService {
	return NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestJWTService()
	accountID := uuid.New()

	token, err := svc.GenerateAccessToken(accountID, "doc@example.com", "doctor")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, "doc@example.com", claims.Email)
	assert.Equal(t, "doctor", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	svc := newTestJWTService()

	refresh, err := svc.GenerateRefreshToken(uuid.New(), "doc@example.com", "doctor")
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)

	_, err = svc.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  -time.Minute,
		RefreshExpiry: time.Hour,
	})

	token, err := svc.GenerateAccessToken(uuid.New(), "doc@example.com", "doctor")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateAccessToken(uuid.New(), "doc@example.com", "doctor")
	require.NoError(t, err)

	other := NewJWTService(Config{Secret: "different", RefreshSecret: "different"})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}
