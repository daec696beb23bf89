package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chirpboard/backend/internal/logging"
)

const redisKeyPrefix = "chirpboard:ratelimit:"

// redisRateLimiter counts requests per key in fixed windows stored in Redis,
// so every instance shares one budget.
type redisRateLimiter struct {
	client redis.UniversalClient
	limit  int64
	window time.Duration
}

// NewRedisRateLimiter allows requests+burst events per key in each window.
func NewRedisRateLimiter(client redis.UniversalClient, requests int, window time.Duration, burst int) RateLimiter {
	requests, window, burst = normalizeLimits(requests, window, burst)
	return &redisRateLimiter{
		client: client,
		limit:  int64(requests + burst),
		window: window,
	}
}

// Allow fails open when Redis is unreachable.
func (l *redisRateLimiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		key = "unknown"
	}
	key = redisKeyPrefix + key

	var count *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		count = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Error("rate limiter unavailable", "error", err)
		return true
	}

	return count.Val() <= l.limit
}
