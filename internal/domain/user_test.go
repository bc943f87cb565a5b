package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeValueObject(t *testing.T) {
	var u User
	assert.Nil(t, u.Challenge())

	code := "123456"
	expires := time.Now().Add(5 * time.Minute)
	u.MFACode = &code
	u.MFACodeExpiresAt = &expires
	u.MFACodeAttempts = 2

	challenge := u.Challenge()
	require.NotNil(t, challenge)
	assert.Equal(t, "123456", challenge.Code)
	assert.Equal(t, expires, challenge.ExpiresAt)
	assert.Equal(t, 2, challenge.Attempts)

	// Half-set columns never yield a challenge.
	u.MFACodeExpiresAt = nil
	assert.Nil(t, u.Challenge())
}

func TestIsLockedBoundary(t *testing.T) {
	now := time.Now()
	var u User
	assert.False(t, u.IsLocked(now))

	future := now.Add(time.Minute)
	u.LockedUntil = &future
	assert.True(t, u.IsLocked(now))

	// The expiry instant itself is no longer locked.
	u.LockedUntil = &now
	assert.False(t, u.IsLocked(now))

	past := now.Add(-time.Minute)
	u.LockedUntil = &past
	assert.False(t, u.IsLocked(now))
}

func TestHasPermission(t *testing.T) {
	u := User{Permissions: StringList{"read", "view_reports"}}
	assert.True(t, u.HasPermission(PermissionRead))
	assert.True(t, u.HasPermission(PermissionViewReports))
	assert.False(t, u.HasPermission(PermissionManageUsers))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "sam@example.com", NormalizeEmail("  Sam@Example.COM "))
	assert.Equal(t, "sam@example.com", NormalizeEmail("sam@example.com"))
}
