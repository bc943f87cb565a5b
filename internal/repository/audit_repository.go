package repository

import (
	"context"

	"github.com/zadic42/Role-based-Auth/internal/domain"
)

// AuditRepository is the append-only audit sink plus the pagination
// queries the admin screens read from.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, filter domain.AuditFilter, limit, offset int) ([]*domain.AuditEntry, int, error)
}
