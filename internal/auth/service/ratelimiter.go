package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/testes001/myfinbank-sub003/internal/audit"
	"github.com/testes001/myfinbank-sub003/internal/auth/domain"
	"github.com/testes001/myfinbank-sub003/internal/auth/dto"
)

// deniedMessage is shown to end users on any rate-limit denial. It must not
// reveal the email, attempt counts, or whether the account exists.
const deniedMessage = "Too many login attempts. Please try again later."

type RateLimitConfig struct {
	// MaxAttempts is the failed-attempt ceiling per email in LockoutWindow.
	MaxAttempts int
	// LockoutWindow is the sliding window for the per-email counter.
	LockoutWindow time.Duration
	// CaptchaThreshold is the failed count at which captcha becomes required.
	CaptchaThreshold int
	// SuspiciousWindow bounds the burst detector that feeds the audit sink.
	SuspiciousWindow time.Duration
	// IPWindow is the shorter window for the per-IP counter; the per-IP limit
	// is 2*MaxAttempts and overrides the per-email verdict.
	IPWindow time.Duration
	// ProgressiveDelays is indexed by prior failed count, clamped at the end.
	ProgressiveDelays []time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:      5,
		LockoutWindow:    15 * time.Minute,
		CaptchaThreshold: 3,
		SuspiciousWindow: 5 * time.Minute,
		IPWindow:         10 * time.Minute,
		ProgressiveDelays: []time.Duration{
			0,
			time.Second,
			3 * time.Second,
			5 * time.Second,
			10 * time.Second,
		},
	}
}

// RateLimiter computes login allow/deny decisions from the attempt ledger.
// Ledger failures degrade to "allowed": a storage glitch must never lock a
// legitimate user out. The circuit breaker turns a down Redis into fast
// fail-open instead of per-request timeouts.
type RateLimiter struct {
	ledger  domain.AttemptLedger
	sink    audit.Sink
	cfg     RateLimitConfig
	clock   clockwork.Clock
	log     *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

func NewRateLimiter(ledger domain.AttemptLedger, sink audit.Sink, cfg RateLimitConfig, clock clockwork.Clock, log *zap.Logger) *RateLimiter {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "attempt-ledger",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &RateLimiter{
		ledger:  ledger,
		sink:    sink,
		cfg:     cfg,
		clock:   clock,
		log:     log,
		breaker: breaker,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Check is a pure read: it inspects the ledger and mutates nothing.
func (rl *RateLimiter) Check(ctx context.Context, email, ip string) dto.RateLimitDecision {
	email = NormalizeEmail(email)
	now := rl.clock.Now()

	// Per-IP counter first: it catches credential stuffing spread across many
	// emails from one network and takes precedence in the returned message.
	ipCount, ok := rl.readCount(func() (int, error) {
		return rl.ledger.FailedCountByIP(ctx, ip, rl.cfg.IPWindow)
	})
	if ok && ipCount >= 2*rl.cfg.MaxAttempts {
		reset := now.Add(rl.cfg.IPWindow)
		return dto.RateLimitDecision{
			Allowed:        false,
			ResetTime:      &reset,
			Message:        deniedMessage,
			RequireCaptcha: true,
		}
	}

	count, ok := rl.readCount(func() (int, error) {
		return rl.ledger.FailedCount(ctx, email, rl.cfg.LockoutWindow)
	})
	if !ok {
		// Fail open with the most permissive decision.
		return dto.RateLimitDecision{Allowed: true, RemainingAttempts: rl.cfg.MaxAttempts}
	}

	if count >= rl.cfg.MaxAttempts {
		reset := now.Add(rl.cfg.LockoutWindow)
		if oldest, found, err := rl.ledger.OldestFailure(ctx, email, rl.cfg.LockoutWindow); err == nil && found {
			reset = oldest.Add(rl.cfg.LockoutWindow)
		}
		minutes := int(math.Ceil(reset.Sub(now).Minutes()))
		if minutes < 1 {
			minutes = 1
		}

		return dto.RateLimitDecision{
			Allowed:        false,
			ResetTime:      &reset,
			Message:        fmt.Sprintf("Too many login attempts. Please try again in %d minutes.", minutes),
			RequireCaptcha: true,
		}
	}

	return dto.RateLimitDecision{
		Allowed:           true,
		RemainingAttempts: rl.cfg.MaxAttempts - count,
		RequireCaptcha:    count >= rl.cfg.CaptchaThreshold,
		Delay:             rl.delayFor(count),
	}
}

// RecordAttempt appends to the ledger. Failures past the suspicious threshold
// inside the short window emit a best-effort signal to the audit sink; ledger
// errors are logged and swallowed.
func (rl *RateLimiter) RecordAttempt(ctx context.Context, email, ip, userAgent string, success bool) {
	email = NormalizeEmail(email)
	attempt := &domain.LoginAttempt{
		ID:          uuid.NewString(),
		Email:       email,
		IPAddress:   ip,
		UserAgent:   userAgent,
		AttemptTime: rl.clock.Now(),
		Successful:  success,
	}

	if err := rl.ledger.Record(ctx, attempt); err != nil {
		rl.log.Warn("attempt ledger write failed", zap.Error(err))
		return
	}
	if success {
		return
	}

	recent, err := rl.ledger.FailedCount(ctx, email, rl.cfg.SuspiciousWindow)
	if err != nil {
		rl.log.Warn("attempt ledger read failed", zap.Error(err))
		return
	}
	if recent >= rl.cfg.CaptchaThreshold {
		rl.sink.Emit(audit.Event{
			Actor:    email,
			Action:   "auth.suspicious_activity",
			Resource: "login",
			Status:   "flagged",
			Details: map[string]string{
				"ip_address": ip,
				"window":     rl.cfg.SuspiciousWindow.String(),
			},
		})
	}
}

// Clear drops the failed-attempt counter after a verified login. Idempotent;
// the durable attempt history is untouched.
func (rl *RateLimiter) Clear(ctx context.Context, email string) {
	if err := rl.ledger.ClearFailures(ctx, NormalizeEmail(email)); err != nil {
		rl.log.Warn("failed to clear rate limit", zap.Error(err))
	}
}

func (rl *RateLimiter) readCount(read func() (int, error)) (int, bool) {
	result, err := rl.breaker.Execute(func() (interface{}, error) {
		return read()
	})
	if err != nil {
		rl.log.Warn("rate limit read failed, failing open", zap.Error(err))
		return 0, false
	}

	return result.(int), true
}

func (rl *RateLimiter) delayFor(failedCount int) time.Duration {
	if len(rl.cfg.ProgressiveDelays) == 0 {
		return 0
	}
	if failedCount >= len(rl.cfg.ProgressiveDelays) {
		failedCount = len(rl.cfg.ProgressiveDelays) - 1
	}

	return rl.cfg.ProgressiveDelays[failedCount]
}
