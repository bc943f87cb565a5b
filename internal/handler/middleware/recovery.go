package middleware

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/service"
)

// RecoveryMiddleware turns panics into a generic 500 response and
// writes them to the error log. The recorder may be nil.
func RecoveryMiddleware(errorLogs *service.ErrorLogRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				log.Printf("PANIC: %v\n%s", r, stack)

				if errorLogs != nil {
					errorLogs.Record(c.Context(), domain.ErrorLevelError,
						fmt.Sprintf("panic: %v", r), string(stack), RequestErrorMeta(c))
				}

				if err := c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"message": "Internal server error",
				}); err != nil {
					log.Printf("Error sending panic response: %v", err)
				}
			}
		}()

		return c.Next()
	}
}

// RequestErrorMeta captures the request context an error-log entry
// carries, including the caller's identity when one was resolved.
func RequestErrorMeta(c *fiber.Ctx) service.HTTPErrorMeta {
	meta := service.HTTPErrorMeta{
		Route:     c.OriginalURL(),
		Method:    c.Method(),
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}

	if identity := identityFromCtx(c); identity != nil {
		switch identity.Kind {
		case domain.IdentityBootstrapAdmin:
			if identity.Claims != nil {
				meta.UserEmail = identity.Claims.Email
			}
		case domain.IdentityStoredUser:
			if identity.User != nil {
				meta.UserID = identity.User.ID.String()
				meta.UserEmail = identity.User.Email
			}
		}
	}

	return meta
}
