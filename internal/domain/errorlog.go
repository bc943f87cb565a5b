package domain

import (
	"time"

	"github.com/google/uuid"
)

type ErrorLevel string

const (
	ErrorLevelError   ErrorLevel = "error"
	ErrorLevelWarning ErrorLevel = "warning"
	ErrorLevelInfo    ErrorLevel = "info"
)

// ErrorLogEntry records a server fault together with the request it
// happened on. Like audit entries these are append-only; only the
// admin listing endpoints read them.
type ErrorLogEntry struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Level     ErrorLevel `json:"level" db:"level"`
	Message   string     `json:"message" db:"message"`
	Stack     string     `json:"stack,omitempty" db:"stack"`
	UserID    string     `json:"userId" db:"user_id"`
	UserEmail string     `json:"userEmail" db:"user_email"`
	Route     string     `json:"route" db:"route"`
	Method    string     `json:"method" db:"method"`
	IPAddress string     `json:"ipAddress" db:"ip_address"`
	UserAgent string     `json:"userAgent" db:"user_agent"`
	CreatedAt time.Time  `json:"timestamp" db:"created_at"`
}

// ErrorLogFilter narrows error-log listing queries. Route matches as a
// case-insensitive substring; the other fields match exactly.
type ErrorLogFilter struct {
	Level     string
	UserEmail string
	Route     string
	Method    string
	StartDate *time.Time
	EndDate   *time.Time
}
