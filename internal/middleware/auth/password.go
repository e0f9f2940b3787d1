package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password CheckStrength accepts.
const MinPasswordLength = 8

var (
	ErrPasswordTooShort = fmt.Errorf("must be at least %d characters", MinPasswordLength)
	ErrPasswordNumeric  = errors.New("must not be entirely numeric")
)

// dummyHash is compared against when the account does not exist.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := HashPassword("foodgram-dummy-password")
	return hash
})

// HashPassword creates a bcrypt hash from the given plaintext password.
func HashPassword(password string) (string, error) {
	// bcrypt.DefaultCost is 10
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyPassword checks if the provided plaintext password matches the stored bcrypt hash.
func VerifyPassword(hashedPassword, providedPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(providedPassword))
}

// VerifyUnknownUser spends the same bcrypt work as VerifyPassword so a
// login for a missing account takes as long as one with a wrong password.
func VerifyUnknownUser(providedPassword string) {
	_ = VerifyPassword(dummyHash(), providedPassword)
}

// CheckStrength enforces the password policy for new passwords.
func CheckStrength(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if strings.Trim(password, "0123456789") == "" {
		return ErrPasswordNumeric
	}
	return nil
}
