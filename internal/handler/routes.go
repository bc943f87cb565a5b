package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/handler/middleware"
)

func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	accountHandler *AccountHandler,
	oauthHandler *OAuthHandler,
	userHandler *UserHandler,
	auditHandler *AuditHandler,
	errorLogHandler *ErrorLogHandler,
	healthHandler *HealthHandler,
	requireAuth fiber.Handler,
	requireAdmin fiber.Handler,
) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	// API v1
	api := app.Group("/api/v1")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Post("/admin/login", authHandler.AdminLogin)
	auth.Post("/verify-mfa", authHandler.VerifyMFA)
	auth.Post("/resend-mfa", authHandler.ResendMFA)

	// Google OAuth (public, browser redirects)
	auth.Get("/google", oauthHandler.GoogleLogin)
	auth.Get("/google/callback", oauthHandler.GoogleCallback)

	// MFA management and account deletion (session required)
	auth.Post("/setup-mfa", requireAuth, accountHandler.SetupMFA)
	auth.Post("/verify-and-enable-mfa", requireAuth, accountHandler.VerifyAndEnableMFA)
	auth.Post("/request-disable-mfa", requireAuth, accountHandler.RequestDisableMFA)
	auth.Post("/verify-and-disable-mfa", requireAuth, accountHandler.VerifyAndDisableMFA)
	auth.Get("/mfa/status", requireAuth, accountHandler.MFAStatus)
	auth.Post("/request-delete-mfa", requireAuth, accountHandler.RequestDeleteMFA)
	auth.Delete("/delete-account", requireAuth, accountHandler.DeleteAccount)

	// User routes (protected)
	users := api.Group("/users", requireAuth)
	users.Get("/profile", userHandler.GetProfile)
	users.Put("/profile", userHandler.UpdateProfile)

	// User management (admins, or users granted manage_users)
	manageUsers := middleware.RequirePermission(domain.PermissionManageUsers)
	users.Get("/", manageUsers, userHandler.ListUsers)
	users.Post("/", manageUsers, userHandler.CreateUser)
	users.Put("/:id", manageUsers, userHandler.UpdateUser)
	users.Delete("/:id", manageUsers, userHandler.DeleteUser)

	// Audit trail (admin only)
	audit := api.Group("/audit-logs", requireAuth, requireAdmin)
	audit.Get("/", auditHandler.ListLogs)
	audit.Get("/user/:id", auditHandler.ListUserLogs)

	// Error logs (admin only)
	errorLogs := api.Group("/error-logs", requireAuth, requireAdmin)
	errorLogs.Get("/", errorLogHandler.ListLogs)
	errorLogs.Get("/:id", errorLogHandler.GetLog)
}
