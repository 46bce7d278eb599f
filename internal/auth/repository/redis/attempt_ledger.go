package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/testes001/myfinbank-sub003/internal/auth/domain"
)

const (
	emailKeyPrefix = "ratelimit:fail:email:"
	ipKeyPrefix    = "ratelimit:fail:ip:"
)

// AttemptLedger keeps failed-login counters in Redis sorted sets, one set per
// email and one per IP, scored by attempt time in unix milliseconds. Windowed
// counts are ZCOUNT range reads, so a freshly recorded attempt is visible to
// the very next check.
type AttemptLedger struct {
	client    *redis.Client
	clock     clockwork.Clock
	retention time.Duration
}

func NewAttemptLedger(client *redis.Client, clock clockwork.Clock, retention time.Duration) *AttemptLedger {
	if retention <= 0 {
		retention = 24 * time.Hour
	}

	return &AttemptLedger{client: client, clock: clock, retention: retention}
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}

func ipKey(ip string) string {
	return ipKeyPrefix + ip
}

// Record appends a failed attempt to both counters. Successful attempts are
// not tracked here; the durable audit trail lives in Postgres.
func (l *AttemptLedger) Record(ctx context.Context, attempt *domain.LoginAttempt) error {
	if attempt.Successful {
		return nil
	}

	score := float64(attempt.AttemptTime.UnixMilli())
	cutoff := strconv.FormatInt(l.clock.Now().Add(-l.retention).UnixMilli(), 10)

	pipe := l.client.TxPipeline()
	for _, key := range []string{emailKey(attempt.Email), ipKey(attempt.IPAddress)} {
		pipe.ZRemRangeByScore(ctx, key, "-inf", cutoff)
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: attempt.ID})
		pipe.Expire(ctx, key, l.retention)
	}
	_, err := pipe.Exec(ctx)

	return err
}

func (l *AttemptLedger) FailedCount(ctx context.Context, email string, window time.Duration) (int, error) {
	return l.countSince(ctx, emailKey(email), window)
}

func (l *AttemptLedger) FailedCountByIP(ctx context.Context, ip string, window time.Duration) (int, error) {
	return l.countSince(ctx, ipKey(ip), window)
}

func (l *AttemptLedger) countSince(ctx context.Context, key string, window time.Duration) (int, error) {
	min := strconv.FormatInt(l.clock.Now().Add(-window).UnixMilli(), 10)
	n, err := l.client.ZCount(ctx, key, min, "+inf").Result()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

func (l *AttemptLedger) OldestFailure(ctx context.Context, email string, window time.Duration) (time.Time, bool, error) {
	min := strconv.FormatInt(l.clock.Now().Add(-window).UnixMilli(), 10)
	entries, err := l.client.ZRangeByScoreWithScores(ctx, emailKey(email), &redis.ZRangeBy{
		Min:    min,
		Max:    "+inf",
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return time.Time{}, false, err
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}

	return time.UnixMilli(int64(entries[0].Score)), true, nil
}

// ClearFailures drops the per-email counter after a verified login. Deleting
// an absent key is a no-op, which keeps the call idempotent.
func (l *AttemptLedger) ClearFailures(ctx context.Context, email string) error {
	return l.client.Del(ctx, emailKey(email)).Err()
}
