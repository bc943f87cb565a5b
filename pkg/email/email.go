package email

import (
	"context"
	"time"
)

// Sender delivers MFA codes out-of-band. Implementations are
// fire-and-forget from the flows' perspective: a failed send is logged
// by the caller but never rolls back code issuance.
type Sender interface {
	SendMFACode(ctx context.Context, to, name, code string, expiresAt time.Time) error
}

// Config holds delivery configuration supplied from the environment.
type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
}
