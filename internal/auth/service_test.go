package auth

import (
	"errors"
	"testing"
	"time"
)

func TestService_TokenRoundTrip(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	token, err := service.GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	claims, err := service.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
}

func TestService_RejectsTamperedToken(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	token, err := service.GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	if _, err := service.ValidateToken(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestService_RejectsWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", time.Hour).GenerateToken(1)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	if _, err := NewService("secret-b", time.Hour).ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestService_RejectsExpiredToken(t *testing.T) {
	service := NewService("test-secret", -time.Minute)

	token, err := service.GenerateToken(1)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	if _, err := service.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestService_PasswordHashing(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	hash, err := service.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	if err := service.VerifyPassword(hash, "correct horse"); err != nil {
		t.Errorf("VerifyPassword() with right password failed: %v", err)
	}

	if err := service.VerifyPassword(hash, "wrong horse"); err == nil {
		t.Error("VerifyPassword() with wrong password should fail")
	}
}
