package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
)

// Permission tags are independent of the role.
type Permission string

const (
	PermissionRead        Permission = "read"
	PermissionWrite       Permission = "write"
	PermissionDelete      Permission = "delete"
	PermissionManageUsers Permission = "manage_users"
	PermissionViewReports Permission = "view_reports"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash *string    `json:"-" db:"password_hash"`
	GoogleID     *string    `json:"-" db:"google_id"`
	Role         Role       `json:"role" db:"role"`
	Permissions  StringList `json:"permissions" db:"permissions"`
	MFAEnabled   bool       `json:"mfaEnabled" db:"mfa_enabled"`

	// Pending challenge columns. The three form one value object and
	// are only written through SetMFAChallenge / ClearMFAChallenge so
	// they never go out of sync.
	MFACode          *string    `json:"-" db:"mfa_code"`
	MFACodeExpiresAt *time.Time `json:"-" db:"mfa_code_expires_at"`
	MFACodeAttempts  int        `json:"-" db:"mfa_code_attempts"`

	LoginAttempts int        `json:"-" db:"login_attempts"`
	LockedUntil   *time.Time `json:"-" db:"locked_until"`
	LastLoginAt   *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// MFAChallenge is the pending single-use code attached to a user.
type MFAChallenge struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// Challenge assembles the pending challenge value object, or nil when
// no code is outstanding.
func (u *User) Challenge() *MFAChallenge {
	if u.MFACode == nil || u.MFACodeExpiresAt == nil {
		return nil
	}
	return &MFAChallenge{
		Code:      *u.MFACode,
		ExpiresAt: *u.MFACodeExpiresAt,
		Attempts:  u.MFACodeAttempts,
	}
}

// IsLocked reports whether the account currently rejects logins.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

func (u *User) HasPermission(p Permission) bool {
	for _, have := range u.Permissions {
		if have == string(p) {
			return true
		}
	}
	return false
}

// NormalizeEmail lower-cases and trims an address; every lookup and
// every stored email goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
