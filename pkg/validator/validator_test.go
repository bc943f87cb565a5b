package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
	Role  string `json:"role" validate:"omitempty,oneof=user trainer admin"`
}

func TestValidatePasses(t *testing.T) {
	v := NewValidator()
	err := v.Validate(sampleRequest{Email: "sam@example.com", Code: "123456", Role: "user"})
	assert.NoError(t, err)
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(sampleRequest{Email: "", Code: "123456"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")

	err = v.Validate(sampleRequest{Email: "not-an-email", Code: "123456"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid email address")
}

func TestValidateCodeShape(t *testing.T) {
	v := NewValidator()

	err := v.Validate(sampleRequest{Email: "sam@example.com", Code: "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 6 characters")

	err = v.Validate(sampleRequest{Email: "sam@example.com", Code: "12ab56"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only digits")
}

func TestValidateOneOf(t *testing.T) {
	v := NewValidator()

	err := v.Validate(sampleRequest{Email: "sam@example.com", Code: "123456", Role: "superuser"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}
