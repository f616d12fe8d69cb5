package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GenerateHash creates a bcrypt hash from a password string
func GenerateHash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password hash: %w", err)
	}
	return hash, nil
}

// CheckPassword compares a password against a stored bcrypt hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
