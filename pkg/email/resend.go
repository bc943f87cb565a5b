package email

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender implements Sender on top of the Resend API.
type ResendSender struct {
	client *resend.Client
	config *Config
}

func NewResendSender(config *Config) (*ResendSender, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if config.FromEmail == "" {
		return nil, fmt.Errorf("from email is required")
	}

	return &ResendSender{
		client: resend.NewClient(config.APIKey),
		config: config,
	}, nil
}

func (s *ResendSender) SendMFACode(ctx context.Context, to, name, code string, expiresAt time.Time) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		To:      []string{to},
		Subject: "Your verification code",
		Html:    MFACodeTemplate(name, code, time.Until(expiresAt)),
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		log.Printf("[EMAIL] Failed to send MFA code to %s: %v", to, err)
		return fmt.Errorf("failed to send MFA code: %w", err)
	}

	log.Printf("[EMAIL] MFA code sent to %s (ID: %s)", to, sent.Id)
	return nil
}
