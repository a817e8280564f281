package ratelimit

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

type countingLimiter struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return Decision{Allowed: true}, l.err
	}
	l.counts[key]++
	if l.counts[key] > l.limit {
		return Decision{Allowed: false, RetryAfter: 1500 * time.Millisecond}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - l.counts[key]}, nil
}

func newApp(limiter Limiter) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code, "details": de.Details})
		},
	})
	app.Use(Middleware(limiter, func(c *fiber.Ctx) string { return c.Get("X-User") }))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func TestMiddlewareLimitsPerKey(t *testing.T) {
	app := newApp(&countingLimiter{limit: 2, counts: map[string]int{}})

	do := func(user string) int {
		req := httptest.NewRequest(fiber.MethodGet, "/", nil)
		req.Header.Set("X-User", user)
		resp, err := app.Test(req)
		require.NoError(t, err)
		if resp.StatusCode == fiber.StatusTooManyRequests {
			assert.Equal(t, "2", resp.Header.Get(fiber.HeaderRetryAfter))
		}
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, do("alice"))
	assert.Equal(t, fiber.StatusNoContent, do("alice"))
	assert.Equal(t, fiber.StatusTooManyRequests, do("alice"))
	assert.Equal(t, fiber.StatusNoContent, do("bob"))
	assert.Equal(t, fiber.StatusNoContent, do(""))
}

func TestMiddlewareFailsOpen(t *testing.T) {
	app := newApp(&countingLimiter{err: errors.New("connection refused")})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-User", "alice")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRedisLimiterAllowsWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisLimiter(client, 1, time.Minute, nil)
	decision, err := limiter.Allow(context.Background(), "alice")
	assert.Error(t, err)
	assert.True(t, decision.Allowed)
}

func TestRedisLimiterDisabled(t *testing.T) {
	limiter := NewRedisLimiter(nil, 0, 0, nil)
	decision, err := limiter.Allow(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
