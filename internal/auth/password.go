package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

const (
	passwordMinLen = 8
	passwordMaxLen = 30
	usernameMaxLen = 30
)

// ValidatePassword enforces the password policy for new passwords.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLen {
		return fmt.Errorf("password must be at least %d characters", passwordMinLen)
	}
	if len(password) > passwordMaxLen {
		return fmt.Errorf("password must be at most %d characters", passwordMaxLen)
	}
	return nil
}

// ValidateUsername enforces the username policy for new accounts. The
// column is varchar(30); overlong names fail here, not on the insert.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username required")
	}
	if len(username) > usernameMaxLen {
		return fmt.Errorf("username must be at most %d characters", usernameMaxLen)
	}
	return nil
}
