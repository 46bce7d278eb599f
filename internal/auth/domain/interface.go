package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	// GetByEmail returns (nil, nil) when no user exists.
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error

	StoreRefreshToken(ctx context.Context, rt *RefreshToken) error
	// GetRefreshToken returns the row for the exact token string, revoked or
	// not, so callers can distinguish replay from an unknown token.
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
	RevokeSession(ctx context.Context, sessionID string) error
	SessionHasLineage(ctx context.Context, sessionID string) (bool, error)
	ActiveSessionCount(ctx context.Context, userID string) (int, error)
	DeleteOldestSession(ctx context.Context, userID string) error

	RecordLoginAttempt(ctx context.Context, attempt *LoginAttempt) error
}

// AttemptLedger is the hot, windowed view of failed logins that rate-limit
// decisions are computed from. Reads are pure; only Record mutates.
type AttemptLedger interface {
	Record(ctx context.Context, attempt *LoginAttempt) error
	FailedCount(ctx context.Context, email string, window time.Duration) (int, error)
	FailedCountByIP(ctx context.Context, ip string, window time.Duration) (int, error)
	// OldestFailure reports the oldest failure inside the window; the bool is
	// false when the window holds no failures.
	OldestFailure(ctx context.Context, email string, window time.Duration) (time.Time, bool, error)
	ClearFailures(ctx context.Context, email string) error
}
