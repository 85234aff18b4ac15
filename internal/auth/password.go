package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword is used by the seed tool to produce ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func ComparePassword(hash, password string) error {
	if hash == "" || password == "" {
		return errors.New("missing hash or password")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// VerifyAdmin checks a login attempt against the configured admin account.
func VerifyAdmin(wantUser, hash, username, password string) error {
	if subtle.ConstantTimeCompare([]byte(wantUser), []byte(username)) != 1 {
		return ErrInvalidCredentials
	}
	if err := ComparePassword(hash, password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
