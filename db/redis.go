package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the client and pings it once. A failed ping is
// returned to the caller but the client is still usable: the rate limiter
// fails open when Redis is unreachable, so startup should not abort.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, err
	}

	return client, nil
}
