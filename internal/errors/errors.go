package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrRateLimited        = errors.New("too many failed login attempts")

	ErrTokenExpired        = errors.New("access token expired")
	ErrTokenInvalid        = errors.New("access token invalid")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
	ErrSessionRevoked      = errors.New("session revoked")

	ErrAccountNotFound        = errors.New("account not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrAccountInactive        = errors.New("account not active")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidTransfer        = errors.New("invalid transfer")
	ErrCurrencyMismatch       = errors.New("currency mismatch")
	ErrConcurrentModification = errors.New("concurrent balance modification")
)

// RateLimitError is returned when a login is denied by the rate limiter.
// It unwraps to ErrRateLimited so callers can match the kind while the
// HTTP layer reads the retry window.
type RateLimitError struct {
	ResetTime      time.Time
	RetryAfter     time.Duration
	RequireCaptcha bool
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v (retry after %s)", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
