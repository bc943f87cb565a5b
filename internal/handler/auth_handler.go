package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/service"
	"github.com/zadic42/Role-based-Auth/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

// Signup registers a new non-admin account
// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req service.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.authService.Signup(c.Context(), req, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login checks credentials and either returns a session token or opens
// an MFA challenge
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.authService.Login(c.Context(), req, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// AdminLogin authenticates against the bootstrap admin credentials
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.authService.AdminLogin(c.Context(), req, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// VerifyMFA exchanges a temp token plus a valid code for a session token
// POST /api/v1/auth/verify-mfa
func (h *AuthHandler) VerifyMFA(c *fiber.Ctx) error {
	var req service.VerifyMFARequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.authService.VerifyMFA(c.Context(), req, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// ResendMFA issues a fresh code and temp token, revoking the old token
// POST /api/v1/auth/resend-mfa
func (h *AuthHandler) ResendMFA(c *fiber.Ctx) error {
	var req service.ResendMFARequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.authService.ResendMFA(c.Context(), req, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
