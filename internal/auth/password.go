package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies plain against a bcrypt hash. Hashes written by
// PHP's password_hash ($2y$) are accepted. With no hash stored, plain is
// compared against the bootstrap password instead.
func CheckPassword(hash, plain, bootstrap string) bool {
	if strings.TrimSpace(hash) == "" {
		if bootstrap == "" {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(plain), []byte(bootstrap)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
