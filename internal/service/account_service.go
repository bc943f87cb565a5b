package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/config"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
)

// AccountService owns the MFA enablement lifecycle and the
// account-deletion flow. All of them ride on the same challenge
// manager the login flow uses; only the transition taken on an
// accepted code differs.
type AccountService struct {
	users repository.UserRepository
	audit *AuditRecorder
	mfa   *MFAService
	cfg   *config.Config
}

func NewAccountService(users repository.UserRepository, audit *AuditRecorder, mfa *MFAService, cfg *config.Config) *AccountService {
	return &AccountService{
		users: users,
		audit: audit,
		mfa:   mfa,
		cfg:   cfg,
	}
}

type CodeIssuedResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SetupMFA sends the code that, once confirmed, enables MFA.
func (s *AccountService) SetupMFA(ctx context.Context, userID uuid.UUID, meta RequestMeta) (*CodeIssuedResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	challenge, err := s.mfa.IssueCode(ctx, user, s.cfg.MFA.ManageCodeTTL)
	if err != nil {
		return nil, err
	}

	log.Printf("[ACCOUNT] MFA setup initiated for user %s", user.ID)
	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionSetupMFARequest, "MFA setup code sent", meta, domain.AuditSuccess)
	return &CodeIssuedResponse{
		Success:   true,
		Message:   "Verification code sent to your email",
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

// VerifyAndEnableMFA confirms the setup code and flips the flag. The
// flag changes through this path only, never by direct assignment.
func (s *AccountService) VerifyAndEnableMFA(ctx context.Context, userID uuid.UUID, code string, meta RequestMeta) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.confirmManageCode(ctx, user, code, domain.ActionEnableMFA, meta); err != nil {
		return err
	}

	if err := s.users.SetMFAEnabled(ctx, user.ID, true); err != nil {
		return err
	}

	log.Printf("[ACCOUNT] MFA enabled for user %s", user.ID)
	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionEnableMFA, "MFA enabled successfully", meta, domain.AuditSuccess)
	return nil
}

// RequestDisableMFA sends the code protecting the disable transition.
func (s *AccountService) RequestDisableMFA(ctx context.Context, userID uuid.UUID, meta RequestMeta) (*CodeIssuedResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	challenge, err := s.mfa.IssueCode(ctx, user, s.cfg.MFA.ManageCodeTTL)
	if err != nil {
		return nil, err
	}

	log.Printf("[ACCOUNT] MFA disable code sent to user %s", user.ID)
	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionDisableMFARequest, "MFA disable code sent", meta, domain.AuditSuccess)
	return &CodeIssuedResponse{
		Success:   true,
		Message:   "Verification code sent to your email",
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

func (s *AccountService) VerifyAndDisableMFA(ctx context.Context, userID uuid.UUID, code string, meta RequestMeta) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.confirmManageCode(ctx, user, code, domain.ActionDisableMFA, meta); err != nil {
		return err
	}

	if err := s.users.SetMFAEnabled(ctx, user.ID, false); err != nil {
		return err
	}

	log.Printf("[ACCOUNT] MFA disabled for user %s", user.ID)
	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionDisableMFA, "MFA disabled successfully", meta, domain.AuditSuccess)
	return nil
}

// MFAStatus reports whether login requires the challenge step.
func (s *AccountService) MFAStatus(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.MFAEnabled, nil
}

// RequestDeleteMFA sends the code protecting account deletion.
// Meaningless when MFA is off; deletion then needs no code.
func (s *AccountService) RequestDeleteMFA(ctx context.Context, userID uuid.UUID, meta RequestMeta) (*CodeIssuedResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.MFAEnabled {
		return nil, ErrMFANotEnabled
	}

	challenge, err := s.mfa.IssueCode(ctx, user, s.cfg.MFA.ManageCodeTTL)
	if err != nil {
		return nil, err
	}

	log.Printf("[ACCOUNT] Delete-account MFA code sent to user %s, expires at %s", user.ID, challenge.ExpiresAt.Format(time.RFC3339))
	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionDeleteMFARequest, "MFA code requested for account deletion", meta, domain.AuditSuccess)

	return &CodeIssuedResponse{
		Success:   true,
		Message:   "Verification code sent to your email",
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

// DeleteAccount destroys the caller's account. On MFA-enabled
// accounts a fresh code must accompany the request.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uuid.UUID, mfaCode string, meta RequestMeta) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionDeleteAccount, "Deletion attempted without MFA code", meta, domain.AuditFailure)
			return ErrMFARequired
		}

		outcome, err := s.mfa.VerifyCode(ctx, user, mfaCode)
		if err != nil {
			return err
		}
		switch outcome {
		case VerifyNoCode:
			s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionDeleteAccount, "No MFA code on record", meta, domain.AuditFailure)
			return ErrNoMFACode
		case VerifyExpired:
			s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionDeleteAccount, "MFA code expired", meta, domain.AuditFailure)
			return ErrCodeExpired
		case VerifyMismatch:
			s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionDeleteAccount, "Invalid MFA code", meta, domain.AuditFailure)
			return ErrInvalidCode
		}
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	log.Printf("[ACCOUNT] Account deleted: %s", user.ID)
	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionDeleteAccount, "Account deleted successfully", meta, domain.AuditSuccess)
	return nil
}

// confirmManageCode maps challenge outcomes onto the 400-class errors
// the MFA management endpoints use. Rejected codes are audited under
// the action whose confirmation they failed.
func (s *AccountService) confirmManageCode(ctx context.Context, user *domain.User, code, action string, meta RequestMeta) error {
	outcome, err := s.mfa.VerifyCode(ctx, user, code)
	if err != nil {
		return err
	}
	switch outcome {
	case VerifyNoCode, VerifyExpired:
		s.audit.Record(ctx, user.ID.String(), user.Email, action, "Verification code expired or missing", meta, domain.AuditFailure)
		return ErrSetupCodeExpired
	case VerifyMismatch:
		s.audit.Record(ctx, user.ID.String(), user.Email, action, "Invalid verification code", meta, domain.AuditFailure)
		return ErrSetupCodeInvalid
	}
	return nil
}

func (s *AccountService) getUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
