package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailure AuditStatus = "failure"
)

// Audit actions recorded by the auth flows.
const (
	ActionSignup            = "signup"
	ActionLogin             = "login"
	ActionAdminLogin        = "admin_login"
	ActionOAuthLogin        = "oauth_login"
	ActionMFAResend         = "mfa_resend"
	ActionMFAVerification   = "mfa_verification"
	ActionEnableMFA         = "enable_mfa"
	ActionDisableMFA        = "disable_mfa"
	ActionSetupMFARequest   = "setup_mfa_request"
	ActionDisableMFARequest = "disable_mfa_request"
	ActionDeleteMFARequest  = "delete_account_mfa_request"
	ActionDeleteAccount     = "delete_account"
	ActionAccountLocked     = "account_locked"
)

// AuditEntry is an append-only record of a security-relevant event.
// The core writes entries as a side effect and never reads them back;
// the admin listing endpoints are the only readers.
type AuditEntry struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	UserID    string      `json:"userId" db:"user_id"`
	UserEmail string      `json:"userEmail" db:"user_email"`
	Action    string      `json:"action" db:"action"`
	Details   string      `json:"details" db:"details"`
	IPAddress string      `json:"ipAddress" db:"ip_address"`
	UserAgent string      `json:"userAgent" db:"user_agent"`
	Status    AuditStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"timestamp" db:"created_at"`
}

// AuditFilter narrows audit listing queries.
type AuditFilter struct {
	UserID    string
	Action    string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}
