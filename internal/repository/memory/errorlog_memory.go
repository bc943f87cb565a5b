package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

// ErrorLogRepository collects entries in memory, newest first on List.
type ErrorLogRepository struct {
	mu      sync.Mutex
	entries []*domain.ErrorLogEntry
}

func NewErrorLogRepository() *ErrorLogRepository {
	return &ErrorLogRepository{}
}

func (r *ErrorLogRepository) Create(ctx context.Context, entry *domain.ErrorLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *entry
	r.entries = append(r.entries, &c)
	return nil
}

func (r *ErrorLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ErrorLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ID == id {
			c := *e
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ErrorLogRepository) List(ctx context.Context, filter domain.ErrorLogFilter, limit, offset int) ([]*domain.ErrorLogEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.ErrorLogEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if filter.Level != "" && string(e.Level) != filter.Level {
			continue
		}
		if filter.UserEmail != "" && e.UserEmail != filter.UserEmail {
			continue
		}
		if filter.Route != "" && !strings.Contains(strings.ToLower(e.Route), strings.ToLower(filter.Route)) {
			continue
		}
		if filter.Method != "" && !strings.EqualFold(e.Method, filter.Method) {
			continue
		}
		if filter.StartDate != nil && e.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && e.CreatedAt.After(*filter.EndDate) {
			continue
		}
		c := *e
		matched = append(matched, &c)
	}

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// Entries returns a snapshot of everything recorded, oldest first.
func (r *ErrorLogRepository) Entries() []*domain.ErrorLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.ErrorLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
