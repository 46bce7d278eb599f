package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/testes001/myfinbank-sub003/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	apperrors "github.com/testes001/myfinbank-sub003/internal/errors"
	"github.com/testes001/myfinbank-sub003/pkg/constant"
)

type TokenGenerator interface {
	Generate(userID, email, role, sessionID string) (string, string, time.Time, error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

type TokenService struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	clock         clockwork.Clock
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

func NewTokenService(accessSecret, refreshSecret string, accessMinutes, refreshMinutes int, clock clockwork.Clock) *TokenService {
	return &TokenService{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     time.Duration(accessMinutes) * time.Minute,
		refreshTTL:    time.Duration(refreshMinutes) * time.Minute,
		clock:         clock,
	}
}

// Generate signs an access/refresh pair for the session. Both tokens carry the
// same session id; the refresh token is the longer-lived revocation boundary.
func (ts *TokenService) Generate(userID, email, role, sessionID string) (string, string, time.Time, error) {
	now := ts.clock.Now()

	accessClaims := JWTCustomClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constant.TokenIssuer,
			Audience:  jwt.ClaimStrings{constant.TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	refreshClaims := JWTCustomClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constant.TokenIssuer,
			Audience:  jwt.ClaimStrings{constant.TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(ts.accessSecret))
	if err != nil {
		return "", "", time.Time{}, err
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		refreshClaims).SignedString([]byte(ts.refreshSecret))
	if err != nil {
		return "", "", time.Time{}, err
	}

	return accessToken, refreshToken, now.Add(ts.accessTTL), nil
}

func (ts *TokenService) AccessTokenTTL() time.Duration {
	return ts.accessTTL
}

func (ts *TokenService) RefreshTokenTTL() time.Duration {
	return ts.refreshTTL
}

// VerifyAccessToken parses and validates an access token. Expiry and
// signature/claims failures are distinct kinds so callers can auto-refresh on
// the former and force re-login on the latter.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.accessSecret, apperrors.ErrTokenExpired, apperrors.ErrTokenInvalid)
}

// VerifyRefreshToken is the refresh-namespaced counterpart of
/// VerifyAccessToken: its error kinds name the refresh token explicitly.
func (ts *TokenService) VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.refreshSecret, apperrors.ErrRefreshTokenExpired, apperrors.ErrRefreshTokenInvalid)
}

func (ts *TokenService) verify(tokenString, secret string, expiredKind, invalidKind error) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(constant.TokenIssuer),
		jwt.WithAudience(constant.TokenAudience),
		jwt.WithTimeFunc(ts.clock.Now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, expiredKind
		}
		return nil, invalidKind
	}

	if !token.Valid {
		return nil, invalidKind
	}

	return claims, nil
}
