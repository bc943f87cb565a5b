package service

import (
	"context"
	"time"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

// LockoutTracker keeps the per-account failure counter and lock
// window. Reaching the threshold and locking happen in one store
// round-trip, so the invariant "count >= threshold implies locked"
// holds even under concurrent failures.
type LockoutTracker struct {
	users        repository.UserRepository
	threshold    int
	lockDuration time.Duration
	now          func() time.Time
}

func NewLockoutTracker(users repository.UserRepository, threshold int, lockDuration time.Duration) *LockoutTracker {
	return &LockoutTracker{
		users:        users,
		threshold:    threshold,
		lockDuration: lockDuration,
		now:          time.Now,
	}
}

// RecordFailure counts a failed credential check and returns the lock
// expiry when this failure tripped (or found) a lock.
func (t *LockoutTracker) RecordFailure(ctx context.Context, user *domain.User) (*time.Time, error) {
	_, lockedUntil, err := t.users.IncrementLoginAttempts(ctx, user.ID, t.threshold, t.lockDuration)
	if err != nil {
		return nil, err
	}
	return lockedUntil, nil
}

// RecordSuccess resets the counter and clears any lock.
func (t *LockoutTracker) RecordSuccess(ctx context.Context, user *domain.User) error {
	if user.LoginAttempts == 0 && user.LockedUntil == nil {
		return nil
	}
	return t.users.ResetLoginAttempts(ctx, user.ID)
}

// IsLocked reports whether the account currently rejects logins. The
// check runs before any credential verification so a locked account
// never reveals whether the supplied secret was correct.
func (t *LockoutTracker) IsLocked(user *domain.User) bool {
	return user.IsLocked(t.now())
}
