package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LoggerMiddleware logs each request with its latency and status.
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.Printf("[%s] %s - %d in %v from %s",
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start),
			c.IP(),
		)

		return err
	}
}
