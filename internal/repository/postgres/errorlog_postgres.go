package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

type errorLogRepository struct {
	db *sqlx.DB
}

// NewErrorLogRepository creates a new PostgreSQL error log repository
func NewErrorLogRepository(db *sqlx.DB) repository.ErrorLogRepository {
	return &errorLogRepository{db: db}
}

func (r *errorLogRepository) Create(ctx context.Context, entry *domain.ErrorLogEntry) error {
	query := `
		INSERT INTO error_logs (
			id, level, message, stack, user_id, user_email,
			route, method, ip_address, user_agent, created_at
		) VALUES (
			:id, :level, :message, :stack, :user_id, :user_email,
			:route, :method, :ip_address, :user_agent, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("failed to create error log entry: %w", err)
	}

	return nil
}

func (r *errorLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ErrorLogEntry, error) {
	query := `
		SELECT id, level, message, stack, user_id, user_email,
			   route, method, ip_address, user_agent, created_at
		FROM error_logs
		WHERE id = $1`

	var entry domain.ErrorLogEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get error log entry: %w", err)
	}

	return &entry, nil
}

func (r *errorLogRepository) List(ctx context.Context, filter domain.ErrorLogFilter, limit, offset int) ([]*domain.ErrorLogEntry, int, error) {
	where, args := buildErrorLogFilter(filter)

	countQuery := `SELECT COUNT(*) FROM error_logs` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count error log entries: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, level, message, stack, user_id, user_email,
			   route, method, ip_address, user_agent, created_at
		FROM error_logs%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var entries []*domain.ErrorLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list error log entries: %w", err)
	}

	return entries, total, nil
}

func buildErrorLogFilter(filter domain.ErrorLogFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Level != "" {
		add("level = $%d", filter.Level)
	}
	if filter.UserEmail != "" {
		add("user_email = $%d", filter.UserEmail)
	}
	if filter.Route != "" {
		add("route ILIKE '%%' || $%d || '%%'", filter.Route)
	}
	if filter.Method != "" {
		add("method = $%d", strings.ToUpper(filter.Method))
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
