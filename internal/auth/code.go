package auth

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewLoginCode returns a short one-time code for the email login flow.
func NewLoginCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// HashCode hashes a login code for storage using bcrypt with DefaultCost.
func HashCode(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(b), err
}

// CheckCode compares a stored bcrypt hash with a candidate code.
func CheckCode(hash, code string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
}
