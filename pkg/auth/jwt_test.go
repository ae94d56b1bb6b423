package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "jevencare",
	}
}

func testIdentity() Identity {
	return Identity{UserID: uuid.New(), Phone: "9876543210", Role: "patient"}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(testConfig())
	id := testIdentity()

	token, err := svc.GenerateAccessToken(id)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, AccessToken, claims.Type)

	got, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService(testConfig())
	id := testIdentity()

	access, err := svc.GenerateAccessToken(id)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(id)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSameSecretStillChecksType(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	svc := NewJWTService(cfg)

	refresh, err := svc.GenerateRefreshToken(testIdentity())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAccessToken(t *testing.T) {
	now := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := NewJWTService(testConfig(), WithClock(clock))

	token, err := svc.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTamperedToken(t *testing.T) {
	svc := NewJWTService(testConfig())
	other := NewJWTService(Config{AccessSecret: "other", AccessTTL: time.Minute})

	token, err := other.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccessToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
