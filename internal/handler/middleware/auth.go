package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
	"github.com/zadic42/Role-based-Auth/pkg/jwt"
)

// RequireAuth validates the bearer token and resolves the caller's
// identity. Temp tokens from the MFA hand-off are rejected here: they
// only open the verify and resend endpoints, never a session route.
// Stored users are reloaded on every request so role changes, lockouts
// and deletions take effect immediately.
func RequireAuth(tokenService *jwt.TokenService, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Missing authorization header",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid authorization header format",
			})
		}

		claims, err := tokenService.Verify(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		if claims.Scope == domain.ScopeMFAPending {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "MFA verification must be completed first",
				"code":    "MFA_REQUIRED",
			})
		}

		identity, status, body := resolveIdentity(c, users, claims)
		if identity == nil {
			return c.Status(status).JSON(body)
		}

		c.Locals("identity", identity)
		return c.Next()
	}
}

func resolveIdentity(c *fiber.Ctx, users repository.UserRepository, claims *domain.Claims) (*domain.Identity, int, fiber.Map) {
	if claims.Scope == domain.ScopeAdmin {
		return &domain.Identity{
			Kind:   domain.IdentityBootstrapAdmin,
			Claims: claims,
		}, 0, nil
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fiber.StatusUnauthorized, fiber.Map{
			"success": false,
			"message": "Invalid or expired token",
		}
	}

	user, err := users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.StatusNotFound, fiber.Map{
				"success": false,
				"message": "User not found",
			}
		}
		return nil, fiber.StatusInternalServerError, fiber.Map{
			"success": false,
			"message": "Internal server error",
		}
	}

	if user.IsLocked(time.Now()) {
		return nil, fiber.StatusForbidden, fiber.Map{
			"success":     false,
			"message":     "Account is locked. Please try again later.",
			"lockedUntil": user.LockedUntil,
		}
	}

	return &domain.Identity{
		Kind:   domain.IdentityStoredUser,
		Claims: claims,
		User:   user,
	}, 0, nil
}
