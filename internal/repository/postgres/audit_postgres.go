package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

type auditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new PostgreSQL audit log repository
func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, user_email, action, details,
			ip_address, user_agent, status, created_at
		) VALUES (
			:id, :user_id, :user_email, :action, :details,
			:ip_address, :user_agent, :status, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

func (r *auditRepository) List(ctx context.Context, filter domain.AuditFilter, limit, offset int) ([]*domain.AuditEntry, int, error) {
	where, args := buildAuditFilter(filter)

	countQuery := `SELECT COUNT(*) FROM audit_logs` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, user_email, action, details,
			   ip_address, user_agent, status, created_at
		FROM audit_logs%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var entries []*domain.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, total, nil
}

func buildAuditFilter(filter domain.AuditFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.StartDate != nil {
		add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", *filter.EndDate)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
