package services

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestLoginIssuesAdminToken(t *testing.T) {
	auth := NewAuthService("hunter2", "test-secret")

	tokenString, err := auth.Login("hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["role"] != "admin" {
		t.Fatalf("role = %v, want admin", claims["role"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth := NewAuthService("hunter2", "test-secret")
	if _, err := auth.Login("hunter3"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("err = %v, want ErrBadCredentials", err)
	}
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	auth := NewAuthService("", "test-secret")
	if auth.Enabled() {
		t.Fatal("auth should be disabled without a password")
	}
	// An empty submitted password must not match an empty configured one.
	if auth.VerifyPassword("") {
		t.Fatal("empty password must never verify")
	}
}
