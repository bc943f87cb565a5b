package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/service"
)

// ErrorLogHandler serves the admin-only error-log listing.
type ErrorLogHandler struct {
	logs *service.ErrorLogRecorder
}

func NewErrorLogHandler(logs *service.ErrorLogRecorder) *ErrorLogHandler {
	return &ErrorLogHandler{logs: logs}
}

// ListLogs returns a filtered page of error-log entries
// GET /api/v1/error-logs (admin)
func (h *ErrorLogHandler) ListLogs(c *fiber.Ctx) error {
	filter := domain.ErrorLogFilter{
		Level:     c.Query("level"),
		UserEmail: c.Query("userEmail"),
		Route:     c.Query("route"),
		Method:    c.Query("method"),
	}

	var err error
	if filter.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		return badRequest(c, "Invalid startDate, expected RFC 3339 or YYYY-MM-DD")
	}
	if filter.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		return badRequest(c, "Invalid endDate, expected RFC 3339 or YYYY-MM-DD")
	}

	page, err := h.logs.List(c.Context(), filter, c.QueryInt("page", 1), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    page,
	})
}

// GetLog returns one error-log entry
// GET /api/v1/error-logs/:id (admin)
func (h *ErrorLogHandler) GetLog(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	entry, err := h.logs.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    entry,
	})
}
