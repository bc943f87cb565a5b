package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository/memory"
	"github.com/zadic42/Role-based-Auth/pkg/hash"
)

func newUserService(t *testing.T) (*UserService, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	return NewUserService(users), users
}

func createLocalUser(t *testing.T, users *memory.UserRepository, email, password string) *domain.User {
	t.Helper()
	hashed, err := hash.Password(password)
	require.NoError(t, err)
	user := &domain.User{
		ID:           uuid.New(),
		Name:         "Sam",
		Email:        email,
		PasswordHash: &hashed,
		Role:         domain.RoleUser,
		Permissions:  domain.StringList{"read"},
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestGetProfile(t *testing.T) {
	svc, users := newUserService(t)
	user := createLocalUser(t, users, "sam@example.com", "hunter22")

	dto, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), dto.ID)
	assert.Equal(t, "sam@example.com", dto.Email)

	_, err = svc.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	svc, users := newUserService(t)
	user := createLocalUser(t, users, "sam@example.com", "hunter22")
	ctx := context.Background()

	err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newpassword",
	})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		CurrentPassword: "hunter22",
		NewPassword:     "newpassword",
	}))

	stored := reload(t, users, user.ID)
	ok, err := hash.Verify("newpassword", *stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfileEmail(t *testing.T) {
	svc, users := newUserService(t)
	user := createLocalUser(t, users, "sam@example.com", "hunter22")

	require.NoError(t, svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{
		Email: "New@Example.com",
	}))
	assert.Equal(t, "new@example.com", reload(t, users, user.ID).Email)
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	svc, users := newUserService(t)
	user := createLocalUser(t, users, "sam@example.com", "hunter22")
	createLocalUser(t, users, "taken@example.com", "hunter22")
	ctx := context.Background()

	err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Email: "Taken@Example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, "sam@example.com", reload(t, users, user.ID).Email)

	// Re-submitting the current address is not a conflict.
	require.NoError(t, svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Email: "sam@example.com"}))
}

func TestAdminCreateUser(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, AdminCreateUserRequest{
		Name:        "Trainer",
		Email:       "trainer@example.com",
		Password:    "hunter22",
		Role:        "trainer",
		Permissions: []string{"read", "view_reports"},
	})
	require.NoError(t, err)
	assert.Equal(t, "trainer", dto.Role)
	assert.ElementsMatch(t, []string{"read", "view_reports"}, dto.Permissions)

	_, err = svc.Create(ctx, AdminCreateUserRequest{
		Name:     "Duplicate",
		Email:    "trainer@example.com",
		Password: "hunter22",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAdminUpdateUser(t *testing.T) {
	svc, users := newUserService(t)
	user := createLocalUser(t, users, "sam@example.com", "hunter22")
	ctx := context.Background()

	until := time.Now().Add(time.Hour)
	require.NoError(t, svc.AdminUpdate(ctx, user.ID, AdminUpdateUserRequest{
		Role:        "admin",
		Permissions: []string{"read", "manage_users"},
		LockedUntil: &until,
	}))

	stored := reload(t, users, user.ID)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
	assert.ElementsMatch(t, domain.StringList{"read", "manage_users"}, stored.Permissions)
	require.NotNil(t, stored.LockedUntil)

	assert.ErrorIs(t, svc.AdminUpdate(ctx, uuid.New(), AdminUpdateUserRequest{}), ErrUserNotFound)
}

func TestAdminDeleteUser(t *testing.T) {
	svc, users := newUserService(t)
	user := createLocalUser(t, users, "sam@example.com", "hunter22")
	ctx := context.Background()

	require.NoError(t, svc.AdminDelete(ctx, user.ID))
	assert.ErrorIs(t, svc.AdminDelete(ctx, user.ID), ErrUserNotFound)
}
