package dto

import "time"

// RateLimitDecision is derived on demand from the attempt ledger; it is never
// persisted. When Allowed is false, Message is safe to show to end users: it
// carries no attempt counts and no email.
type RateLimitDecision struct {
	Allowed           bool
	RemainingAttempts int
	ResetTime         *time.Time
	Message           string
	RequireCaptcha    bool
	Delay             time.Duration
}
