package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/grievance-desk/internal/auth"
	"github.com/spec-kit/grievance-desk/internal/config"
	"github.com/spec-kit/grievance-desk/internal/domain"
)

func TestAuthServiceLogin(t *testing.T) {
	svc, err := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
		AdminUsername:         "admin",
		AdminPassword:         "s3cret",
	})
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	token, exp, err := svc.Login(context.Background(), "admin", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || exp.IsZero() {
		t.Fatal("expected token and expiry")
	}
	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != domain.SubjectTypeAdmin {
		t.Fatalf("subject = %q", claims.Subject)
	}

	if _, _, err := svc.Login(context.Background(), "admin", "wrong"); errorCode(err) != "UNAUTHORIZED" {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "root", "s3cret"); errorCode(err) != "UNAUTHORIZED" {
		t.Fatalf("wrong user: %v", err)
	}
}

func TestAuthServiceAcceptsHash(t *testing.T) {
	hash, err := auth.HashPassword("hunter2", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc, err := NewAuthService(config.AuthConfig{JWTSecret: "x", AdminUsername: "admin", AdminPasswordHash: hash})
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "admin", "hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestAuthServiceRequiresCredential(t *testing.T) {
	if _, err := NewAuthService(config.AuthConfig{JWTSecret: "x", AdminUsername: "admin"}); err == nil {
		t.Fatal("expected error without a password")
	}
}
