package service

import (
	"context"
	"fmt"

	"incubator_console/internal/backend"
	"incubator_console/internal/models"
	"incubator_console/internal/session"
)

// AuthBackend is the credential exchange side of the backend client.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	Me(ctx context.Context) (models.User, error)
}

// AuthService drives the backend login flow and the session lifecycle.
type AuthService struct {
	backend  AuthBackend
	sessions *session.Manager
}

func NewAuthService(b AuthBackend, sessions *session.Manager) *AuthService {
	return &AuthService{backend: b, sessions: sessions}
}

// Login exchanges credentials for a token, fetches the profile and persists
// both. The token must be in the session before Me, since every outbound
// call reads its bearer from there.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}
	if err := s.sessions.Set(ctx, res.AccessToken, models.User{}); err != nil {
		return models.User{}, fmt.Errorf("store session: %w", err)
	}

	user, err := s.backend.Me(ctx)
	if err != nil {
		_ = s.sessions.Clear(ctx)
		return models.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	if err := s.sessions.Set(ctx, res.AccessToken, user); err != nil {
		return models.User{}, fmt.Errorf("store session: %w", err)
	}
	return user, nil
}

// Logout tears the session down.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// Current returns the logged-in operator, if any.
func (s *AuthService) Current() (models.User, bool) {
	return s.sessions.User()
}
