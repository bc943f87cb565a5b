package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

// UserRepository is an in-memory store with the same per-record
// atomicity guarantees as the Postgres implementation. It backs the
// service and handler tests.
type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = domain.NormalizeEmail(email)
	for _, user := range r.users {
		if user.Email == email {
			c := *user
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	stored.Role = user.Role
	stored.Permissions = user.Permissions
	stored.LockedUntil = user.LockedUntil
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		c := *user
		out = append(out, &c)
	}
	return out, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

func (r *UserRepository) IncrementLoginAttempts(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return 0, nil, repository.ErrNotFound
	}
	user.LoginAttempts++
	if user.LoginAttempts >= threshold {
		until := time.Now().Add(lockFor)
		user.LockedUntil = &until
	}
	if user.LockedUntil != nil {
		until := *user.LockedUntil
		return user.LoginAttempts, &until, nil
	}
	return user.LoginAttempts, nil, nil
}

func (r *UserRepository) ResetLoginAttempts(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.LoginAttempts = 0
	user.LockedUntil = nil
	return nil
}

func (r *UserRepository) SetMFAChallenge(ctx context.Context, id uuid.UUID, challenge domain.MFAChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	code := challenge.Code
	expiresAt := challenge.ExpiresAt
	user.MFACode = &code
	user.MFACodeExpiresAt = &expiresAt
	user.MFACodeAttempts = 0
	return nil
}

func (r *UserRepository) ClearMFAChallenge(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	clearChallenge(user)
	return nil
}

func (r *UserRepository) ConsumeMFAChallenge(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if user.MFACode == nil || *user.MFACode != code {
		return false, nil
	}
	clearChallenge(user)
	return true, nil
}

func (r *UserRepository) IncrementMFAAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.MFACode == nil {
		return 0, repository.ErrNotFound
	}
	user.MFACodeAttempts++
	return user.MFACodeAttempts, nil
}

func (r *UserRepository) SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.MFAEnabled = enabled
	clearChallenge(user)
	return nil
}

func (r *UserRepository) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if user.GoogleID == nil {
		user.GoogleID = &googleID
	}
	return nil
}

func clearChallenge(user *domain.User) {
	user.MFACode = nil
	user.MFACodeExpiresAt = nil
	user.MFACodeAttempts = 0
}
