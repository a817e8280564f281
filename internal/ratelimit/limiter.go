package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether key may perform one more request.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter counts requests per key in fixed windows stored in Redis.
// Redis failures are logged and the request is let through.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisLimiter builds a limiter allowing limit requests per window.
// A non-positive limit disables limiting.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RedisLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "chat_rate",
		logger: logger,
		now:    time.Now,
	}
}

// Allow increments the counter of the current window for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.limit <= 0 || l.client == nil {
		return Decision{Allowed: true, Remaining: math.MaxInt32}, nil
	}

	now := l.now()
	windowStart := now.Truncate(l.window)
	retryAfter := windowStart.Add(l.window).Sub(now)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
		return Decision{Allowed: true, Remaining: l.limit}, err
	}

	count := int(incr.Val())
	if count > l.limit {
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - count, RetryAfter: retryAfter}, nil
}
