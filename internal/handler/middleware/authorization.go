package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/domain"
)

func identityFromCtx(c *fiber.Ctx) *domain.Identity {
	identity, _ := c.Locals("identity").(*domain.Identity)
	return identity
}

// RequireAdmin allows the bootstrap admin and stored users with the
// admin role.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}

// RequireRole allows callers holding any of the given roles. The
// bootstrap admin passes every role check.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := identityFromCtx(c)
		if identity == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}
		if identity.Kind == domain.IdentityBootstrapAdmin {
			return c.Next()
		}
		for _, role := range roles {
			if identity.User != nil && identity.User.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Insufficient role",
		})
	}
}

// RequirePermission allows callers holding the given permission. The
// bootstrap admin and admin-role users pass implicitly.
func RequirePermission(permission domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := identityFromCtx(c)
		if identity == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}
		if identity.IsAdmin() {
			return c.Next()
		}
		if identity.User != nil && identity.User.HasPermission(permission) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Insufficient permissions",
		})
	}
}
