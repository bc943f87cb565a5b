package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zadic42/Role-based-Auth/internal/service"
	"github.com/zadic42/Role-based-Auth/pkg/validator"
)

type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validator
}

func NewUserHandler(userService *service.UserService, validator *validator.Validator) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator,
	}
}

// GetProfile returns the authenticated user's own record
// GET /api/v1/users/profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// UpdateProfile changes the authenticated user's email or password
// PUT /api/v1/users/profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := storedUserID(c)
	if err != nil {
		return err
	}

	var req service.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.userService.UpdateProfile(c.Context(), userID, req); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
	})
}

// ListUsers returns all user records
// GET /api/v1/users (admin)
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"users":   users,
	})
}

// CreateUser creates a user with an explicit role and permission set
// POST /api/v1/users (admin)
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.AdminCreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.userService.Create(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// UpdateUser changes a user's role, permissions or lock state
// PUT /api/v1/users/:id (admin)
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req service.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.userService.AdminUpdate(c.Context(), id, req); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "User updated successfully",
	})
}

// DeleteUser removes a user record
// DELETE /api/v1/users/:id (admin)
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.userService.AdminDelete(c.Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}
