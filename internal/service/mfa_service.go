package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/zadic42/Role-based-Auth/internal/domain"
	"github.com/zadic42/Role-based-Auth/internal/repository"
	"github.com/zadic42/Role-based-Auth/pkg/email"
)

// VerifyOutcome is the result of checking a submitted code against the
// pending challenge.
type VerifyOutcome int

const (
	// VerifyAccepted: codes match inside the window; the challenge has
	// been consumed and cannot be replayed.
	VerifyAccepted VerifyOutcome = iota
	// VerifyNoCode: no challenge is pending; the caller must request a
	// new code.
	VerifyNoCode
	// VerifyExpired: a challenge exists but its window has passed.
	VerifyExpired
	// VerifyMismatch: a live challenge exists and the code is wrong.
	VerifyMismatch
)

// MFAService issues and checks single-use codes. The same manager
// serves login MFA, OAuth-login MFA, enable/disable confirmation and
// the account-deletion confirmation; call sites differ only in the
// validity window and in what they do on VerifyAccepted.
type MFAService struct {
	users       repository.UserRepository
	sender      email.Sender
	maxAttempts int
	now         func() time.Time
}

func NewMFAService(users repository.UserRepository, sender email.Sender, maxAttempts int) *MFAService {
	return &MFAService{
		users:       users,
		sender:      sender,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// IssueCode generates a fresh 6-digit code valid for the given window,
// persists it as the user's pending challenge (superseding any
// previous one) and dispatches it by email. A failed dispatch is
// logged but does not roll back issuance; the user can ask for a
// resend.
func (s *MFAService) IssueCode(ctx context.Context, user *domain.User, window time.Duration) (*domain.MFAChallenge, error) {
	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate MFA code: %w", err)
	}

	challenge := domain.MFAChallenge{
		Code:      code,
		ExpiresAt: s.now().Add(window),
	}
	if err := s.users.SetMFAChallenge(ctx, user.ID, challenge); err != nil {
		return nil, err
	}

	log.Printf("[MFA] Generated code for user %s, expires at %s", user.ID, challenge.ExpiresAt.Format(time.RFC3339))

	if s.sender != nil {
		if err := s.sender.SendMFACode(ctx, user.Email, user.Name, code, challenge.ExpiresAt); err != nil {
			log.Printf("[MFA] Code dispatch failed for user %s: %v", user.ID, err)
		}
	}

	return &challenge, nil
}

// VerifyCode checks a submitted code against the pending challenge.
// The instant now == expiry counts as expired. A wrong guess leaves
// the challenge in place for retry until the guess cap is hit, at
// which point the challenge is cleared and the user must request a
// new code. Guesses never feed the login-attempt counter.
func (s *MFAService) VerifyCode(ctx context.Context, user *domain.User, code string) (VerifyOutcome, error) {
	challenge := user.Challenge()
	if challenge == nil {
		return VerifyNoCode, nil
	}

	if !s.now().Before(challenge.ExpiresAt) {
		log.Printf("[MFA] Code expired for user %s at %s", user.ID, challenge.ExpiresAt.Format(time.RFC3339))
		return VerifyExpired, nil
	}

	if code != challenge.Code {
		attempts, err := s.users.IncrementMFAAttempts(ctx, user.ID)
		if err != nil {
			return VerifyMismatch, err
		}
		if attempts >= s.maxAttempts {
			log.Printf("[MFA] Guess cap reached for user %s, invalidating code", user.ID)
			if err := s.users.ClearMFAChallenge(ctx, user.ID); err != nil {
				log.Printf("[MFA] Failed to clear challenge for user %s: %v", user.ID, err)
			}
		}
		return VerifyMismatch, nil
	}

	consumed, err := s.users.ConsumeMFAChallenge(ctx, user.ID, code)
	if err != nil {
		return VerifyMismatch, err
	}
	if !consumed {
		// A concurrent verify got there first.
		return VerifyNoCode, nil
	}

	return VerifyAccepted, nil
}

// generateCode draws a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
