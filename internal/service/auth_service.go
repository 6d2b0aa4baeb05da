package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/spec-kit/grievance-desk/internal/auth"
	"github.com/spec-kit/grievance-desk/internal/config"
	"github.com/spec-kit/grievance-desk/internal/domain"
	apperrors "github.com/spec-kit/grievance-desk/pkg/util/errorutil"
)

// AuthService checks the shared dashboard credential and issues tokens.
type AuthService struct {
	username     string
	passwordHash string
	tokenMgr     *auth.TokenManager
}

// NewAuthService builds the service. A bcrypt hash is preferred; a
// plaintext password is hashed once at startup.
func NewAuthService(cfg config.AuthConfig) (*AuthService, error) {
	if cfg.AdminUsername == "" {
		return nil, errors.New("admin username required")
	}
	hash := cfg.AdminPasswordHash
	if hash == "" {
		if cfg.AdminPassword == "" {
			return nil, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH required")
		}
		hashed, err := auth.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		hash = hashed
	}
	return &AuthService{
		username:     cfg.AdminUsername,
		passwordHash: hash,
		tokenMgr:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}, nil
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login verifies the shared credential and returns a bearer token.
func (s *AuthService) Login(_ context.Context, username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := auth.ComparePassword(s.passwordHash, password)
	if !userOK || passErr != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(s.username, domain.SubjectTypeAdmin)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}
