package services

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrBadCredentials = errors.New("invalid credentials")

// AuthService issues admin session tokens against the single shared admin
// secret. There are no user accounts.
type AuthService struct {
	adminPassword string
	jwtSecret     string
}

func NewAuthService(adminPassword, jwtSecret string) *AuthService {
	return &AuthService{adminPassword: adminPassword, jwtSecret: jwtSecret}
}

// Enabled reports whether an admin password is configured at all.
func (a *AuthService) Enabled() bool {
	return a.adminPassword != ""
}

// VerifyPassword compares the supplied password with the shared secret in
// constant time.
func (a *AuthService) VerifyPassword(password string) bool {
	if !a.Enabled() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.adminPassword)) == 1
}

// Login returns a signed admin session token, valid for 4 hours.
func (a *AuthService) Login(password string) (string, error) {
	if !a.VerifyPassword(password) {
		return "", ErrBadCredentials
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(time.Hour * 4).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.jwtSecret))
}
