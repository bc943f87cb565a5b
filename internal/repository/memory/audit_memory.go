package memory

import (
	"context"
	"sync"

	"github.com/zadic42/Role-based-Auth/internal/domain"
)

// AuditRepository collects entries in memory, newest first on List.
type AuditRepository struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *entry
	r.entries = append(r.entries, &c)
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter, limit, offset int) ([]*domain.AuditEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.AuditEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.Status != "" && string(e.Status) != filter.Status {
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
func (r *AuditRepository) Entries() []*domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
