package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost the accounts were originally hashed
// with; raising it only affects newly hashed credentials.
const DefaultCost = 10

// Password hashes a plaintext credential with bcrypt.
func Password(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether the supplied secret matches the stored hash.
// Any mismatch or malformed hash yields (false, nil); only unexpected
// failures surface as errors.
func Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return false, nil
	}
	return false, err
}
