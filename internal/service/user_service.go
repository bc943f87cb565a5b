package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
	"github.com/zadic42/Role-based-Auth/pkg/hash"
)

// UserService covers the profile endpoint and the admin-side user
// management; plain request/response plumbing around the store.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

type UpdateProfileRequest struct {
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6"`
}

type AdminCreateUserRequest struct {
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=6"`
	Role        string   `json:"role" validate:"omitempty,oneof=user trainer admin"`
	Permissions []string `json:"permissions" validate:"dive,oneof=read write delete manage_users view_reports"`
}

type AdminUpdateUserRequest struct {
	Role        string     `json:"role" validate:"omitempty,oneof=user trainer admin"`
	Permissions []string   `json:"permissions" validate:"omitempty,dive,oneof=read write delete manage_users view_reports"`
	LockedUntil *time.Time `json:"lockedUntil"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// UpdateProfile changes email and/or password; a password change
// requires the current one.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if req.Email != "" {
		newEmail := domain.NormalizeEmail(req.Email)
		if newEmail != user.Email {
			if _, err := s.users.GetByEmail(ctx, newEmail); err == nil {
				return ErrEmailTaken
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		user.Email = newEmail
	}

	if req.CurrentPassword != "" && req.NewPassword != "" {
		if user.PasswordHash == nil {
			return ErrWrongPassword
		}
		ok, err := hash.Verify(req.CurrentPassword, *user.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWrongPassword
		}

		newHash, err := hash.Password(req.NewPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = &newHash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("[USER] Profile updated: %s", user.ID)
	return nil
}

func (s *UserService) List(ctx context.Context) ([]*UserDTO, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*UserDTO, len(users))
	for i, user := range users {
		out[i] = toUserDTO(user)
	}
	return out, nil
}

func (s *UserService) Create(ctx context.Context, req AdminCreateUserRequest) (*UserDTO, error) {
	email := domain.NormalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := hash.Password(req.Password)
	if err != nil {
		return nil, err
	}

	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleUser
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: &passwordHash,
		Role:         role,
		Permissions:  domain.StringList(req.Permissions),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[USER] New user created: %s", user.ID)
	return toUserDTO(user), nil
}

func (s *UserService) AdminUpdate(ctx context.Context, userID uuid.UUID, req AdminUpdateUserRequest) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if req.Role != "" {
		user.Role = domain.Role(req.Role)
	}
	if req.Permissions != nil {
		user.Permissions = domain.StringList(req.Permissions)
	}
	if req.LockedUntil != nil {
		user.LockedUntil = req.LockedUntil
	}

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("[USER] User updated: %s", user.ID)
	return nil
}

func (s *UserService) AdminDelete(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	log.Printf("[USER] User deleted: %s", userID)
	return nil
}

func (s *UserService) getUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
