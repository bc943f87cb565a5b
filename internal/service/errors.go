package service

import "time"

// FlowError is a client-visible failure of one of the auth flows. The
// Code field is set only where the client genuinely branches on the
// outcome; credential failures stay deliberately vague.
type FlowError struct {
	Status      int
	Code        string
	Message     string
	LockedUntil *time.Time
}

func (e *FlowError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials = &FlowError{Status: 401, Message: "Invalid credentials"}
	ErrInvalidTempToken   = &FlowError{Status: 401, Code: "INVALID_TEMP_TOKEN", Message: "Invalid or expired temporary token"}
	ErrNoMFACode          = &FlowError{Status: 401, Code: "NO_MFA_CODE", Message: "No MFA code found. Please request a new code."}
	ErrCodeExpired        = &FlowError{Status: 401, Code: "CODE_EXPIRED", Message: "Verification code expired"}
	ErrInvalidCode        = &FlowError{Status: 401, Code: "INVALID_CODE", Message: "Invalid verification code"}
	ErrMFARequired        = &FlowError{Status: 400, Code: "MFA_REQUIRED", Message: "MFA verification required"}
	ErrMFANotEnabled      = &FlowError{Status: 400, Message: "MFA is not enabled for this account"}
	ErrUserNotFound       = &FlowError{Status: 404, Message: "User not found"}
	ErrErrorLogNotFound   = &FlowError{Status: 404, Message: "Error log not found"}
	ErrEmailTaken         = &FlowError{Status: 400, Message: "Email already registered"}
	ErrAdminSignup        = &FlowError{Status: 403, Message: "Cannot create admin users through signup"}
	ErrWrongPassword      = &FlowError{Status: 401, Message: "Current password is incorrect"}

	// The management confirmations report missing and expired codes
	// alike as a 400 expiry: the remedy is the same, request again.
	ErrSetupCodeExpired = &FlowError{Status: 400, Code: "CODE_EXPIRED", Message: "Verification code has expired. Please request a new code."}
	ErrSetupCodeInvalid = &FlowError{Status: 400, Code: "INVALID_CODE", Message: "Invalid verification code"}
)

// errAccountLocked surfaces the lock expiry so the client can tell the
// user when to retry.
func errAccountLocked(until *time.Time) *FlowError {
	return &FlowError{
		Status:      403,
		Message:     "Account is locked. Please try again later.",
		LockedUntil: until,
	}
}
