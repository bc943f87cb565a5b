package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/service"
)

// respondError maps service failures onto HTTP responses. Flow errors
// carry their own status and machine-readable code; anything else
// bubbles up to the app error handler, which records it and answers
// with a generic 500 so internals never leak to the client.
func respondError(c *fiber.Ctx, err error) error {
	var flowErr *service.FlowError
	if errors.As(err, &flowErr) {
		body := fiber.Map{
			"success": false,
			"message": flowErr.Message,
		}
		if flowErr.Code != "" {
			body["code"] = flowErr.Code
		}
		if flowErr.LockedUntil != nil {
			body["lockedUntil"] = flowErr.LockedUntil
		}
		return c.Status(flowErr.Status).JSON(body)
	}

	return err
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// requestMeta captures the caller's network origin for the audit trail.
func requestMeta(c *fiber.Ctx) service.RequestMeta {
	return service.RequestMeta{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

// identityFromCtx returns the identity stored by the auth middleware.
func identityFromCtx(c *fiber.Ctx) (*domain.Identity, error) {
	identity, ok := c.Locals("identity").(*domain.Identity)
	if !ok || identity == nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}
	return identity, nil
}

// storedUserID resolves the identity to a database user ID. The
// bootstrap admin has no record, so operations that need one reject it.
func storedUserID(c *fiber.Ctx) (uuid.UUID, error) {
	identity, err := identityFromCtx(c)
	if err != nil {
		return uuid.Nil, err
	}
	if identity.Kind != domain.IdentityStoredUser || identity.User == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "This operation requires a regular user account")
	}
	return identity.User.ID, nil
}

func parseIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid ID")
	}
	return id, nil
}
