package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is one link in a session's refresh lineage. A session holds at
// most one non-revoked row at a time; rotation revokes the predecessor.
type RefreshToken struct {
	ID                string
	SessionID         string
	UserID            string
	Token             string
	DeviceFingerprint string
	IPAddress         string
	UserAgent         string
	ExpiresAt         time.Time
	CreatedAt         time.Time
	Revoked           bool
}

// LoginAttempt is immutable once recorded and pruned only by retention.
type LoginAttempt struct {
	ID          string
	Email       string
	IPAddress   string
	UserAgent   string
	AttemptTime time.Time
	Successful  bool
}
