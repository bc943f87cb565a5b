package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/domain"
)

// ErrNotFound is returned by lookups when no record matches.
var ErrNotFound = errors.New("record not found")

// UserRepository is the persistent user store. Mutations that feed the
// auth state machine (attempt counters, pending challenges) are atomic
// per record: each is a single guarded UPDATE, so concurrent stateless
// instances serialize at the store rather than in process.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.User, error)

	UpdateLastLogin(ctx context.Context, id uuid.UUID) error

	// IncrementLoginAttempts bumps the failure counter and, when the
	// post-increment count reaches threshold, sets locked_until in the
	// same statement. It returns the new counter and the lock, if any.
	IncrementLoginAttempts(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) (int, *time.Time, error)
	// ResetLoginAttempts zeroes the counter and clears any lock.
	ResetLoginAttempts(ctx context.Context, id uuid.UUID) error

	// SetMFAChallenge stores a fresh pending challenge, replacing any
	// previous one and resetting the guess counter.
	SetMFAChallenge(ctx context.Context, id uuid.UUID, challenge domain.MFAChallenge) error
	// ClearMFAChallenge drops the pending challenge unconditionally.
	ClearMFAChallenge(ctx context.Context, id uuid.UUID) error
	// ConsumeMFAChallenge clears the challenge only if the stored code
	// equals the supplied one, reporting whether it did. This is the
	// single-use guarantee: of two racing verifies, one consumes.
	ConsumeMFAChallenge(ctx context.Context, id uuid.UUID, code string) (bool, error)
	// IncrementMFAAttempts bumps the wrong-guess counter on the
	// pending challenge and returns the new count.
	IncrementMFAAttempts(ctx context.Context, id uuid.UUID) (int, error)

	// SetMFAEnabled flips the enablement flag and clears the pending
	// challenge in one statement. Only the verified-code confirmation
	// paths call it.
	SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error

	// LinkGoogleID records the external identity on first OAuth login
	// of an existing local account; it never overwrites a set value.
	LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error
}
