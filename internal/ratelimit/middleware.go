package ratelimit

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// Middleware rejects requests once the key returned by keyFunc exhausts its window.
// Limiter errors are tolerated: the decision returned with them is honored.
func Middleware(limiter Limiter, keyFunc func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := keyFunc(c)
		if key == "" {
			return c.Next()
		}

		decision, _ := limiter.Allow(c.UserContext(), key)
		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return apperrors.NewRateLimited(seconds)
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		return c.Next()
	}
}
