package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/domain"
)

// ErrorLogRepository is the error-log sink plus the pagination queries
// the admin screens read from.
type ErrorLogRepository interface {
	Create(ctx context.Context, entry *domain.ErrorLogEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ErrorLogEntry, error)
	List(ctx context.Context, filter domain.ErrorLogFilter, limit, offset int) ([]*domain.ErrorLogEntry, int, error)
}
