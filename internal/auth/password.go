package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces the stored bcrypt digest at the library default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword compares a plaintext candidate against the stored digest.
// Callers fold any failure into one uniform credentials error so responses
// never reveal whether the email or the password was wrong.
func VerifyPassword(digest, password string) error {
	if digest == "" {
		return fmt.Errorf("%w: no password set", ErrUnauthorized)
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
}
