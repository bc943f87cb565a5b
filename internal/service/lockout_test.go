package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zadic42/Role-based-Auth/internal/repository/memory"
)

func TestLockoutBelowThreshold(t *testing.T) {
	users := memory.NewUserRepository()
	tracker := NewLockoutTracker(users, 5, 30*time.Minute)

	user := newTestUser(t, users)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		user = reload(t, users, user.ID)
		lockedUntil, err := tracker.RecordFailure(ctx, user)
		require.NoError(t, err)
		assert.Nil(t, lockedUntil)
	}

	user = reload(t, users, user.ID)
	assert.Equal(t, 4, user.LoginAttempts)
	assert.False(t, tracker.IsLocked(user))
}

func TestLockoutTripsAtThreshold(t *testing.T) {
	users := memory.NewUserRepository()
	tracker := NewLockoutTracker(users, 5, 30*time.Minute)

	user := newTestUser(t, users)
	ctx := context.Background()

	var lockedUntil *time.Time
	for i := 0; i < 5; i++ {
		user = reload(t, users, user.ID)
		var err error
		lockedUntil, err = tracker.RecordFailure(ctx, user)
		require.NoError(t, err)
	}

	require.NotNil(t, lockedUntil)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *lockedUntil, 5*time.Second)

	user = reload(t, users, user.ID)
	assert.True(t, tracker.IsLocked(user))
}

func TestLockoutSuccessResetsCounter(t *testing.T) {
	users := memory.NewUserRepository()
	tracker := NewLockoutTracker(users, 5, 30*time.Minute)

	user := newTestUser(t, users)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		user = reload(t, users, user.ID)
		_, err := tracker.RecordFailure(ctx, user)
		require.NoError(t, err)
	}

	user = reload(t, users, user.ID)
	require.NoError(t, tracker.RecordSuccess(ctx, user))

	user = reload(t, users, user.ID)
	assert.Zero(t, user.LoginAttempts)
	assert.Nil(t, user.LockedUntil)
}

func TestLockoutExpires(t *testing.T) {
	users := memory.NewUserRepository()
	tracker := NewLockoutTracker(users, 5, 30*time.Minute)

	user := newTestUser(t, users)
	past := time.Now().Add(-time.Minute)
	user.LockedUntil = &past

	assert.False(t, tracker.IsLocked(user))

	// The boundary instant itself counts as expired.
	now := time.Now()
	tracker.now = func() time.Time { return now }
	user.LockedUntil = &now
	assert.False(t, tracker.IsLocked(user))

	future := now.Add(time.Minute)
	user.LockedUntil = &future
	assert.True(t, tracker.IsLocked(user))
}
