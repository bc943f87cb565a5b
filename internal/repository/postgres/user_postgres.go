package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

const userColumns = `id, name, email, password_hash, google_id, role, permissions,
	   mfa_enabled, mfa_code, mfa_code_expires_at, mfa_code_attempts,
	   login_attempts, locked_until, last_login_at, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			id, name, email, password_hash, google_id, role, permissions,
			mfa_enabled, mfa_code, mfa_code_expires_at, mfa_code_attempts,
			login_attempts, locked_until, last_login_at, created_at, updated_at
		) VALUES (
			:id, :name, :email, :password_hash, :google_id, :role, :permissions,
			:mfa_enabled, :mfa_code, :mfa_code_expires_at, :mfa_code_attempts,
			:login_attempts, :locked_until, :last_login_at, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET name = :name,
			email = :email,
			password_hash = :password_hash,
			role = :role,
			permissions = :permissions,
			locked_until = :locked_until,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return checkAffected(result)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return checkAffected(result)
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	var users []*domain.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`, now, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return checkAffected(result)
}

// IncrementLoginAttempts bumps the counter and locks the account in
// the same statement once the threshold is reached, so two racing
// failures cannot observe the pre-lock state.
func (r *userRepository) IncrementLoginAttempts(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) (int, *time.Time, error) {
	query := `
		UPDATE users
		SET login_attempts = login_attempts + 1,
			locked_until = CASE WHEN login_attempts + 1 >= $1 THEN $2 ELSE locked_until END,
			updated_at = $3
		WHERE id = $4
		RETURNING login_attempts, locked_until`

	now := time.Now()
	lockUntil := now.Add(lockFor)

	var attempts int
	var lockedUntil sql.NullTime
	row := r.db.QueryRowxContext(ctx, query, threshold, lockUntil, now, id)
	if err := row.Scan(&attempts, &lockedUntil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, repository.ErrNotFound
		}
		return 0, nil, fmt.Errorf("failed to increment login attempts: %w", err)
	}

	if lockedUntil.Valid {
		return attempts, &lockedUntil.Time, nil
	}
	return attempts, nil, nil
}

func (r *userRepository) ResetLoginAttempts(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET login_attempts = 0,
			locked_until = NULL,
			updated_at = $1
		WHERE id = $2`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}

	return checkAffected(result)
}

func (r *userRepository) SetMFAChallenge(ctx context.Context, id uuid.UUID, challenge domain.MFAChallenge) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_code = $1,
			mfa_code_expires_at = $2,
			mfa_code_attempts = 0,
			updated_at = $3
		WHERE id = $4`, challenge.Code, challenge.ExpiresAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set mfa challenge: %w", err)
	}

	return checkAffected(result)
}

func (r *userRepository) ClearMFAChallenge(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_code = NULL,
			mfa_code_expires_at = NULL,
			mfa_code_attempts = 0,
			updated_at = $1
		WHERE id = $2`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to clear mfa challenge: %w", err)
	}

	return checkAffected(result)
}

// ConsumeMFAChallenge guards the clear on the stored code, so a replay
// or a racing second verify finds nothing to consume.
func (r *userRepository) ConsumeMFAChallenge(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_code = NULL,
			mfa_code_expires_at = NULL,
			mfa_code_attempts = 0,
			updated_at = $1
		WHERE id = $2 AND mfa_code = $3`, time.Now(), id, code)
	if err != nil {
		return false, fmt.Errorf("failed to consume mfa challenge: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *userRepository) IncrementMFAAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE users
		SET mfa_code_attempts = mfa_code_attempts + 1,
			updated_at = $1
		WHERE id = $2 AND mfa_code IS NOT NULL
		RETURNING mfa_code_attempts`

	var attempts int
	err := r.db.QueryRowxContext(ctx, query, time.Now(), id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment mfa attempts: %w", err)
	}

	return attempts, nil
}

func (r *userRepository) SetMFAEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_enabled = $1,
			mfa_code = NULL,
			mfa_code_expires_at = NULL,
			mfa_code_attempts = 0,
			updated_at = $2
		WHERE id = $3`, enabled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set mfa enabled: %w", err)
	}

	return checkAffected(result)
}

func (r *userRepository) LinkGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	// Guarded on google_id IS NULL: an already linked identity is
	// never overwritten, and that is not an error.
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET google_id = $1,
			updated_at = $2
		WHERE id = $3 AND google_id IS NULL`, googleID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to link google id: %w", err)
	}

	return nil
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
