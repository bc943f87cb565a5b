package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/service"
)

// AuditHandler serves the admin-only audit trail listing.
type AuditHandler struct {
	audit *service.AuditRecorder
}

func NewAuditHandler(audit *service.AuditRecorder) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListLogs returns a filtered page of audit entries
// GET /api/v1/audit-logs (admin)
func (h *AuditHandler) ListLogs(c *fiber.Ctx) error {
	filter := domain.AuditFilter{
		Action: c.Query("action"),
		Status: c.Query("status"),
		UserID: c.Query("userId"),
	}

	var err error
	if filter.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		return badRequest(c, "Invalid startDate, expected RFC 3339 or YYYY-MM-DD")
	}
	if filter.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		return badRequest(c, "Invalid endDate, expected RFC 3339 or YYYY-MM-DD")
	}

	page, err := h.audit.List(c.Context(), filter, c.QueryInt("page", 1), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    page,
	})
}

// ListUserLogs returns the audit entries of one user
// GET /api/v1/audit-logs/user/:id (admin)
func (h *AuditHandler) ListUserLogs(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	filter := domain.AuditFilter{UserID: id.String()}
	page, err := h.audit.List(c.Context(), filter, c.QueryInt("page", 1), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    page,
	})
}

func parseDateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
