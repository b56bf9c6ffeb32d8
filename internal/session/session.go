// Package session holds the process-wide operator session with an explicit
// lifecycle: Init restores the persisted token at startup, Set stores a fresh
// login, Clear tears everything down (logout or a 401/403 from the backend).
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"incubator_console/internal/models"
	"incubator_console/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

type Manager struct {
	mu    sync.RWMutex
	token string
	user  models.User

	repo repository.SessionRepo
}

func NewManager(repo repository.SessionRepo) *Manager {
	return &Manager{repo: repo}
}

// Init loads the persisted session, if any. A token whose exp claim has
// already passed is discarded instead of restored.
func (m *Manager) Init(ctx context.Context) error {
	token, user, err := m.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoSession) {
			return nil
		}
		return err
	}
	if tokenExpired(token, time.Now()) {
		return m.repo.Clear(ctx)
	}

	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()
	return nil
}

// Set stores a fresh login in memory and on disk.
func (m *Manager) Set(ctx context.Context, token string, user models.User) error {
	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()
	return m.repo.Save(ctx, token, user)
}

// Clear drops the session everywhere. Safe to call when already logged out.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.user = models.User{}
	m.mu.Unlock()
	return m.repo.Clear(ctx)
}

// Token implements backend.TokenSource. Empty when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the cached profile and whether a session is active.
func (m *Manager) User() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user, m.token != ""
}

// Active reports whether an operator is logged in.
func (m *Manager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// tokenExpired inspects the bearer token's exp claim without verifying the
// signature; only the backend holds the signing key. Opaque or claimless
// tokens are kept and left for the backend to reject.
func tokenExpired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
