package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zadic42/Role-based-Auth/internal/config"
	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
	"github.com/zadic42/Role-based-Auth/pkg/hash"
	"github.com/zadic42/Role-based-Auth/pkg/jwt"
)

// TempTokenRevoker withdraws superseded MFA-pending tokens. A nil
// revoker disables revocation (resend then leaves the old token valid
// until its own expiry).
type TempTokenRevoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthService coordinates the login state machine: credential check,
// lockout bookkeeping, the optional MFA challenge round-trip and token
// issuance, with an audit entry at every terminal state.
type AuthService struct {
	users   repository.UserRepository
	audit   *AuditRecorder
	mfa     *MFAService
	lockout *LockoutTracker
	tokens  *jwt.TokenService
	revoked TempTokenRevoker
	cfg     *config.Config
}

func NewAuthService(
	users repository.UserRepository,
	audit *AuditRecorder,
	mfa *MFAService,
	lockout *LockoutTracker,
	tokens *jwt.TokenService,
	revoked TempTokenRevoker,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		users:   users,
		audit:   audit,
		mfa:     mfa,
		lockout: lockout,
		tokens:  tokens,
		revoked: revoked,
		cfg:     cfg,
	}
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user trainer admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyMFARequest struct {
	Code      string `json:"code" validate:"required,len=6,numeric"`
	TempToken string `json:"tempToken" validate:"required"`
	IsOAuth   bool   `json:"isOAuth"`
}

type ResendMFARequest struct {
	TempToken string `json:"tempToken" validate:"required"`
	IsOAuth   bool   `json:"isOAuth"`
}

type UserDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	MFAEnabled  bool     `json:"mfaEnabled"`
}

// LoginResponse covers both terminal shapes of the login flow: a
// session token, or a temporary token with mfaRequired set.
type LoginResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message,omitempty"`
	Token       string     `json:"token,omitempty"`
	MFARequired bool       `json:"mfaRequired,omitempty"`
	TempToken   string     `json:"tempToken,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	User        *UserDTO   `json:"user,omitempty"`
}

type ResendMFAResponse struct {
	Message   string    `json:"message"`
	TempToken string    `json:"tempToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toUserDTO(user *domain.User) *UserDTO {
	return &UserDTO{
		ID:          user.ID.String(),
		Name:        user.Name,
		Email:       user.Email,
		Role:        string(user.Role),
		Permissions: user.Permissions,
		MFAEnabled:  user.MFAEnabled,
	}
}

// Signup registers a local account and logs it straight in.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest, meta RequestMeta) (*LoginResponse, error) {
	email := domain.NormalizeEmail(req.Email)

	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleUser
	}
	if role == domain.RoleAdmin {
		return nil, ErrAdminSignup
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		s.audit.Record(ctx, "unknown", email, domain.ActionSignup, "Email already registered", meta, domain.AuditFailure)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := hash.Password(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: &passwordHash,
		Role:         role,
		Permissions:  domain.StringList{string(domain.PermissionRead), string(domain.PermissionWrite)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[AUTH] New user registered: %s", email)
	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionSignup, "Account created successfully", meta, domain.AuditSuccess)

	token, _, err := s.tokens.IssueSession(user, false, 0)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Success: true,
		Token:   token,
		User:    toUserDTO(user),
	}, nil
}

// Login runs the credential-check state machine and either issues a
// session token directly or opens an MFA challenge.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, meta RequestMeta) (*LoginResponse, error) {
	email := domain.NormalizeEmail(req.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Indistinguishable from a wrong password on the wire.
			s.audit.Record(ctx, "unknown", email, domain.ActionLogin, "Invalid credentials", meta, domain.AuditFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Locked accounts reject before the secret is even looked at.
	if s.lockout.IsLocked(user) {
		s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionLogin, "Attempt on locked account", meta, domain.AuditFailure)
		return nil, errAccountLocked(user.LockedUntil)
	}

	if !s.verifyPassword(user, req.Password) {
		wasLocked := user.LockedUntil != nil
		lockedUntil, err := s.lockout.RecordFailure(ctx, user)
		if err != nil {
			return nil, err
		}
		s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionLogin, "Invalid password", meta, domain.AuditFailure)
		if lockedUntil != nil && !wasLocked {
			s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionAccountLocked,
				fmt.Sprintf("Account locked until %s after repeated failures", lockedUntil.Format(time.RFC3339)),
				meta, domain.AuditFailure)
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("[AUTH] Failed to update last login for %s: %v", user.ID, err)
	}

	if user.MFAEnabled {
		challenge, err := s.mfa.IssueCode(ctx, user, s.cfg.MFA.LoginCodeTTL)
		if err != nil {
			return nil, err
		}

		// Temp token lifetime matches the code window exactly so a
		// stale token cannot outlive its code.
		tempToken, _, err := s.tokens.IssueMFAPending(user, false, s.cfg.MFA.LoginCodeTTL)
		if err != nil {
			return nil, err
		}

		s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionLogin, "MFA code sent", meta, domain.AuditSuccess)

		return &LoginResponse{
			Success:     true,
			Message:     "MFA code sent to your email",
			MFARequired: true,
			TempToken:   tempToken,
			ExpiresAt:   &challenge.ExpiresAt,
			User:        toUserDTO(user),
		}, nil
	}

	token, _, err := s.tokens.IssueSession(user, false, 0)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionLogin, "Login successful", meta, domain.AuditSuccess)

	return &LoginResponse{
		Success: true,
		Token:   token,
		User:    toUserDTO(user),
	}, nil
}

// AdminLogin authenticates the fixed bootstrap identity configured
// outside the user store.
func (s *AuthService) AdminLogin(ctx context.Context, req LoginRequest, meta RequestMeta) (*LoginResponse, error) {
	if s.cfg.Auth.AdminEmail == "" || s.cfg.Auth.AdminPassword == "" {
		return nil, ErrInvalidCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.cfg.Auth.AdminEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.Auth.AdminPassword)) == 1
	if !emailOK || !passwordOK {
		s.audit.Record(ctx, "unknown", req.Email, domain.ActionAdminLogin, "Invalid admin credentials", meta, domain.AuditFailure)
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.tokens.IssueAdmin(s.cfg.Auth.AdminEmail)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "admin", s.cfg.Auth.AdminEmail, domain.ActionAdminLogin, "Admin login successful", meta, domain.AuditSuccess)

	return &LoginResponse{
		Success: true,
		Token:   token,
		User: &UserDTO{
			ID:    "admin",
			Email: s.cfg.Auth.AdminEmail,
			Role:  string(domain.RoleAdmin),
		},
	}, nil
}

// VerifyMFA completes a pending login: the temp token names the user,
// the code proves mailbox possession.
func (s *AuthService) VerifyMFA(ctx context.Context, req VerifyMFARequest, meta RequestMeta) (*LoginResponse, error) {
	user, _, err := s.resolveTempToken(ctx, req.TempToken)
	if err != nil {
		return nil, err
	}

	outcome, err := s.mfa.VerifyCode(ctx, user, req.Code)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case VerifyNoCode:
		s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionMFAVerification, "No MFA code on record", meta, domain.AuditFailure)
		return nil, ErrNoMFACode
	case VerifyExpired:
		s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionMFAVerification, "MFA code expired", meta, domain.AuditFailure)
		return nil, ErrCodeExpired
	case VerifyMismatch:
		s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionMFAVerification, "Invalid MFA code", meta, domain.AuditFailure)
		return nil, ErrInvalidCode
	}

	token, _, err := s.tokens.IssueSession(user, req.IsOAuth, s.cfg.JWT.MFASessionExpiry)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionMFAVerification, "MFA verification successful", meta, domain.AuditSuccess)

	return &LoginResponse{
		Success: true,
		Message: "MFA verification successful",
		Token:   token,
		User:    toUserDTO(user),
	}, nil
}

// ResendMFA replaces the pending challenge with a fresh code and a
// fresh temp token, and withdraws the token it was called with.
func (s *AuthService) ResendMFA(ctx context.Context, req ResendMFARequest, meta RequestMeta) (*ResendMFAResponse, error) {
	user, claims, err := s.resolveTempToken(ctx, req.TempToken)
	if err != nil {
		return nil, err
	}

	window := s.cfg.MFA.ManageCodeTTL
	challenge, err := s.mfa.IssueCode(ctx, user, window)
	if err != nil {
		return nil, err
	}

	tempToken, _, err := s.tokens.IssueMFAPending(user, req.IsOAuth, window)
	if err != nil {
		return nil, err
	}

	if s.revoked != nil && claims.ExpiresAt != nil {
		if err := s.revoked.Revoke(ctx, req.TempToken, claims.ExpiresAt.Time); err != nil {
			log.Printf("[AUTH] Failed to revoke superseded temp token for %s: %v", user.ID, err)
		}
	}

	log.Printf("[AUTH] Resent MFA code for user %s, expires at %s", user.ID, challenge.ExpiresAt.Format(time.RFC3339))
	s.audit.Record(ctx, user.ID.String(), user.Email, domain.ActionMFAResend, "MFA code resent", meta, domain.AuditSuccess)

	return &ResendMFAResponse{
		Message:   "New MFA code sent to your email",
		TempToken: tempToken,
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

// resolveTempToken validates an MFA-pending token, rejects superseded
// ones, and loads the user it is bound to.
func (s *AuthService) resolveTempToken(ctx context.Context, tempToken string) (*domain.User, *domain.Claims, error) {
	claims, err := s.tokens.VerifyScope(tempToken, domain.ScopeMFAPending)
	if err != nil {
		return nil, nil, ErrInvalidTempToken
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, tempToken)
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, ErrInvalidTempToken
		}
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidTempToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	return user, claims, nil
}

func (s *AuthService) verifyPassword(user *domain.User, password string) bool {
	if user.PasswordHash == nil {
		// OAuth-only account; no local credential to match.
		return false
	}
	ok, err := hash.Verify(password, *user.PasswordHash)
	if err != nil {
		log.Printf("[AUTH] Password verification error for %s: %v", user.ID, err)
		return false
	}
	return ok
}
