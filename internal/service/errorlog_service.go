package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

// HTTPErrorMeta carries the request context an error-log entry is
// recorded with.
type HTTPErrorMeta struct {
	UserID    string
	UserEmail string
	Route     string
	Method    string
	IP        string
	UserAgent string
}

// ErrorLogRecorder writes error-log entries when a request dies on a
// server fault. Like the audit sink, a failed write is logged and
// swallowed so the error path never compounds.
type ErrorLogRecorder struct {
	repo repository.ErrorLogRepository
}

func NewErrorLogRecorder(repo repository.ErrorLogRepository) *ErrorLogRecorder {
	return &ErrorLogRecorder{repo: repo}
}

func (r *ErrorLogRecorder) Record(ctx context.Context, level domain.ErrorLevel, message, stack string, meta HTTPErrorMeta) {
	if message == "" {
		message = "Unknown error occurred"
	}

	entry := &domain.ErrorLogEntry{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		Stack:     stack,
		UserID:    meta.UserID,
		UserEmail: meta.UserEmail,
		Route:     meta.Route,
		Method:    meta.Method,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: time.Now(),
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		log.Printf("[ERRORLOG] Failed to record %s on %s %s: %v", level, meta.Method, meta.Route, err)
	}
}

// ErrorLogPage is one page of the admin error-log listing.
type ErrorLogPage struct {
	Logs       []*domain.ErrorLogEntry `json:"logs"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"totalPages"`
}

// List returns a page of error-log entries, newest first.
func (r *ErrorLogRecorder) List(ctx context.Context, filter domain.ErrorLogFilter, page, limit int) (*ErrorLogPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	entries, total, err := r.repo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.ErrorLogEntry{}
	}

	totalPages := (total + limit - 1) / limit
	return &ErrorLogPage{
		Logs:       entries,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// Get returns one error-log entry by id.
func (r *ErrorLogRecorder) Get(ctx context.Context, id uuid.UUID) (*domain.ErrorLogEntry, error) {
	entry, err := r.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrErrorLogNotFound
		}
		return nil, err
	}
	return entry, nil
}
