package middleware

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/VanitasCaesar1/hospital/ratelimit"
)

// KeyFunc picks the identity a request is counted against.
type KeyFunc func(c *fiber.Ctx) string

// ByIP counts requests per client address.
func ByIP(c *fiber.Ctx) string {
	return c.IP()
}

// ByIPAndRoute counts requests per client address and matched route, so each
// guarded endpoint gets its own budget.
func ByIPAndRoute(c *fiber.Ctx) string {
	return c.IP() + ":" + c.Method() + ":" + c.Route().Path
}

// RateLimit rejects requests once the caller exceeds the limiter's budget for
// the current window. When the counter backend fails, failOpen decides
// whether the request is let through or answered with 503.
func RateLimit(limiter *ratelimit.Limiter, logger *zap.Logger, failOpen bool, keyFunc KeyFunc) fiber.Handler {
	if keyFunc == nil {
		keyFunc = ByIP
	}
	return func(c *fiber.Ctx) error {
		key := keyFunc(c)
		decision, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			logger.Error("rate limiter unavailable",
				zap.Error(err),
				zap.String("key", key),
				zap.Bool("fail_open", failOpen))
			if failOpen {
				return c.Next()
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
				"code":  "RATE_LIMIT_UNAVAILABLE",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := int64(math.Ceil(decision.ResetIn.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
			logger.Warn("rate limit exceeded",
				zap.String("key", key),
				zap.String("path", c.Path()))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
