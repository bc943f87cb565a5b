package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

// RequestMeta carries the network origin of the request being audited.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditRecorder writes audit entries as a side effect of the auth
// flows. A failed write is logged and swallowed: the sink must never
// block or fail the primary flow.
type AuditRecorder struct {
	repo repository.AuditRepository
}

func NewAuditRecorder(repo repository.AuditRepository) *AuditRecorder {
	return &AuditRecorder{repo: repo}
}

func (a *AuditRecorder) Record(ctx context.Context, userID, userEmail, action, details string, meta RequestMeta, status domain.AuditStatus) {
	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		UserID:    userID,
		UserEmail: userEmail,
		Action:    action,
		Details:   details,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		Status:    status,
		CreatedAt: time.Now(),
	}

	if err := a.repo.Create(ctx, entry); err != nil {
		log.Printf("[AUDIT] Failed to record %s for %s: %v", action, userEmail, err)
	}
}

// AuditPage is one page of the admin audit listing.
type AuditPage struct {
	Logs       []*domain.AuditEntry `json:"logs"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
}

// List returns a page of audit entries, newest first.
func (a *AuditRecorder) List(ctx context.Context, filter domain.AuditFilter, page, limit int) (*AuditPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	entries, total, err := a.repo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}

	totalPages := (total + limit - 1) / limit
	return &AuditPage{
		Logs:       entries,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}
