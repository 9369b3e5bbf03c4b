package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery turns a panic inside a handler into a logged 500 response.
func Recovery(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
				)

				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "An internal server error occurred",
					"code":  "INTERNAL_SERVER_ERROR",
				})
			}
		}()
		return c.Next()
	}
}

// RequestLogger logs every completed request.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.Info("request completed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Duration("duration", time.Since(start)),
			zap.Int("status", c.Response().StatusCode()),
		)
		return err
	}
}
