package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/handler/middleware"
	"github.com/zadic42/Role-based-Auth/internal/service"
)

// NewAppErrorHandler builds the Fiber error handler. Client-class
// fiber errors keep their status and message; everything else becomes
// a generic 500. Server faults are written to the error log before the
// response goes out. The recorder may be nil.
func NewAppErrorHandler(errorLogs *service.ErrorLogRecorder) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		log.Printf("Error handling request [%s %s]: %v", c.Method(), c.Path(), err)

		if code >= fiber.StatusInternalServerError && errorLogs != nil {
			errorLogs.Record(c.Context(), domain.ErrorLevelError, err.Error(), "",
				middleware.RequestErrorMeta(c))
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}
