package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/testes001/myfinbank-sub003/internal/errors"
	"github.com/testes001/myfinbank-sub003/pkg/constant"
)

func TestTokenService_Generate(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		email     string
		role      string
		sessionID string
	}{
		{
			name:      "customer token",
			userID:    "user-123",
			email:     "test@example.com",
			role:      "customer",
			sessionID: "session-abc",
		},
		{
			name:      "admin token",
			userID:    "admin-456",
			email:     "admin@example.com",
			role:      "admin",
			sessionID: "session-def",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
			ts := NewTokenService("access-secret", "refresh-secret", 15, 1440, clock)

			accessToken, refreshToken, expiry, err := ts.Generate(tt.userID, tt.email, tt.role, tt.sessionID)

			require.NoError(t, err)
			assert.NotEmpty(t, accessToken)
			assert.NotEmpty(t, refreshToken)
			assert.NotEqual(t, accessToken, refreshToken)
			assert.Equal(t, clock.Now().Add(15*time.Minute), expiry)

			claims, err := ts.VerifyAccessToken(accessToken)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, tt.role, claims.Role)
			assert.Equal(t, tt.sessionID, claims.SessionID)
			assert.Equal(t, constant.TokenIssuer, claims.Issuer)
			assert.Equal(t, jwt.ClaimStrings{constant.TokenAudience}, claims.Audience)

			refreshClaims, err := ts.VerifyRefreshToken(refreshToken)
			require.NoError(t, err)
			assert.Equal(t, tt.sessionID, refreshClaims.SessionID)
		})
	}
}

func TestTokenService_VerifyAccessToken_Expired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440, clock)

	accessToken, _, _, err := ts.Generate("user-123", "test@example.com", "customer", "session-abc")
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)

	_, err = ts.VerifyAccessToken(accessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestTokenService_VerifyRefreshToken_ExpiredIsRefreshKind(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ts := NewTokenService("access-secret", "refresh-secret", 15, 60, clock)

	_, refreshToken, _, err := ts.Generate("user-123", "test@example.com", "customer", "session-abc")
	require.NoError(t, err)

	clock.Advance(61 * time.Minute)

	_, err = ts.VerifyRefreshToken(refreshToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
	assert.NotErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestTokenService_VerifyAccessToken_WrongSecret(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440, clock)
	other := NewTokenService("different-secret", "refresh-secret", 15, 1440, clock)

	accessToken, _, _, err := other.Generate("user-123", "test@example.com", "customer", "session-abc")
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(accessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestTokenService_CrossTokenVerificationFails(t *testing.T) {
	// An access token presented as a refresh token must fail: the two are
	// signed with distinct secrets.
	clock := clockwork.NewFakeClock()
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440, clock)

	accessToken, refreshToken, _, err := ts.Generate("user-123", "test@example.com", "customer", "session-abc")
	require.NoError(t, err)

	_, err = ts.VerifyRefreshToken(accessToken)
	assert.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid)

	_, err = ts.VerifyAccessToken(refreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestTokenService_GarbageToken(t *testing.T) {
	ts := NewTokenService("access-secret", "refresh-secret", 15, 1440, clockwork.NewFakeClock())

	_, err := ts.VerifyAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}
