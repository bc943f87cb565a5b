package email

import (
	"fmt"
	"math"
	"time"
)

// MFACodeTemplate renders the verification code email body.
func MFACodeTemplate(name, code string, validFor time.Duration) string {
	greeting := "Hello,"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}
	minutes := int(math.Round(validFor.Minutes()))
	if minutes < 1 {
		minutes = 1
	}

	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Your verification code</h2>
  <p>%s</p>
  <p>Your verification code is: <strong style="font-size: 24px; color: #4F46E5;">%s</strong></p>
  <p>This code will expire in %d minutes.</p>
  <p>If you didn't request this code, please ignore this email.</p>
</div>`, greeting, code, minutes)
}
