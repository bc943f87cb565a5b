package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/service"
	"github.com/zadic42/Role-based-Auth/pkg/validator"
)

// AccountHandler covers the authenticated self-service surface: MFA
// enrollment, disable and account deletion. Every route requires a
// session token and a stored user; the bootstrap admin has nothing to
// manage here.
type AccountHandler struct {
	accountService *service.AccountService
	validator      *validator.Validator
}

func NewAccountHandler(accountService *service.AccountService, validator *validator.Validator) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		validator:      validator,
	}
}

type confirmCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// SetupMFA emails an enrollment code to the account's address
// POST /api/v1/auth/setup-mfa
func (h *AccountHandler) SetupMFA(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.accountService.SetupMFA(c.Context(), userID, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// VerifyAndEnableMFA confirms the enrollment code and turns MFA on
// POST /api/v1/auth/verify-and-enable-mfa
func (h *AccountHandler) VerifyAndEnableMFA(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	var req confirmCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.accountService.VerifyAndEnableMFA(c.Context(), userID, req.Code, requestMeta(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "MFA has been enabled successfully",
	})
}

// RequestDisableMFA emails a confirmation code before disabling MFA
// POST /api/v1/auth/request-disable-mfa
func (h *AccountHandler) RequestDisableMFA(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.accountService.RequestDisableMFA(c.Context(), userID, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// VerifyAndDisableMFA confirms the code and turns MFA off
// POST /api/v1/auth/verify-and-disable-mfa
func (h *AccountHandler) VerifyAndDisableMFA(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	var req confirmCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.accountService.VerifyAndDisableMFA(c.Context(), userID, req.Code, requestMeta(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "MFA has been disabled successfully",
	})
}

// MFAStatus reports whether MFA is enabled for the account
// GET /api/v1/auth/mfa/status
func (h *AccountHandler) MFAStatus(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	enabled, err := h.accountService.MFAStatus(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"mfaEnabled": enabled,
	})
}

// RequestDeleteMFA emails a code required to confirm account deletion
// POST /api/v1/auth/request-delete-mfa
func (h *AccountHandler) RequestDeleteMFA(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.accountService.RequestDeleteMFA(c.Context(), userID, requestMeta(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// DeleteAccount removes the account, confirming with an MFA code when
// MFA is enabled
// DELETE /api/v1/auth/delete-account
func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	// Code is optional at parse time: accounts without MFA delete
	// directly, and the service enforces it for the rest.
	var req struct {
		MFACode string `json:"mfaCode"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	if err := h.accountService.DeleteAccount(c.Context(), userID, req.MFACode, requestMeta(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Account deleted successfully",
	})
}
