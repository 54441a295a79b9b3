// Package session manages the authenticated operator session of the terminal
// service and the components whose lifetime is bound to it.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/internal/domain/models"
	"github.com/mamadbah2/salonpos/pkg/clients/backend"
)

// Gateway is the subset of the backend client used for authentication.
type Gateway interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	SetToken(token string)
}

// Listener is told when a session starts and ends.
type Listener interface {
	SessionStarted(ctx context.Context, user models.User)
	SessionEnded()
}

// ListenerFuncs adapts plain functions to Listener.
type ListenerFuncs struct {
	Started func(ctx context.Context, user models.User)
	Ended   func()
}

func (f ListenerFuncs) SessionStarted(ctx context.Context, user models.User) {
	if f.Started != nil {
		f.Started(ctx, user)
	}
}

func (f ListenerFuncs) SessionEnded() {
	if f.Ended != nil {
		f.Ended()
	}
}

// Manager holds the current session. It replaces ambient auth state with an
// explicit object whose lifetime is Init ... Dispose.
type Manager struct {
	store     Store
	gateway   Gateway
	logger    *zap.Logger
	now       func() time.Time
	listeners []Listener

	// lifecycle serializes session transitions (init, login, logout, expiry, dispose).
	lifecycle sync.Mutex

	mu         sync.Mutex
	current    *models.StoredSession
	generation uint64
	expiry     *time.Timer
}

// NewManager wires a session manager.
func NewManager(store Store, gateway Gateway, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:   store,
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

// Subscribe registers a listener. Call before Init.
func (m *Manager) Subscribe(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Init restores a persisted session when its token has not expired.
func (m *Manager) Init(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	stored, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	if m.expired(stored.ExpiresAt) {
		m.logger.Info("stored session expired, discarding", zap.Time("expires_at", stored.ExpiresAt))
		return m.store.Delete(ctx)
	}

	m.start(ctx, *stored)
	m.logger.Info("session restored", zap.Int64("user_id", stored.User.ID))
	return nil
}

// Login authenticates the operator and starts the session.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return nil, apperror.NewValidation("email and password are required")
	}

	resp, err := m.gateway.Login(ctx, creds)
	if err != nil {
		if status := backend.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, apperror.NewGateway("login", err)
	}
	if resp.Token == "" {
		return nil, apperror.NewGateway("login", errors.New("empty token"))
	}

	stored := models.StoredSession{
		Token:     resp.Token,
		User:      resp.User,
		ExpiresAt: TokenExpiry(resp.Token),
		SavedAt:   m.now(),
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.end()
	if err := m.store.Save(ctx, stored); err != nil {
		m.logger.Warn("session not persisted", zap.Error(err))
	}
	m.start(ctx, stored)
	m.logger.Info("operator logged in", zap.Int64("user_id", resp.User.ID))
	user := resp.User
	return &user, nil
}

// Logout revokes the token, forgets the session and stops session-bound work.
func (m *Manager) Logout(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if _, ok := m.Current(); !ok {
		return nil
	}
	if err := m.gateway.Logout(ctx); err != nil {
		m.logger.Warn("backend logout failed, clearing local session anyway", zap.Error(err))
	}
	m.end()
	if err := m.store.Delete(ctx); err != nil {
		return err
	}
	m.logger.Info("operator logged out")
	return nil
}

// Dispose stops session-bound work without revoking the persisted token.
func (m *Manager) Dispose() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	m.end()
}

// Current returns the active session.
func (m *Manager) Current() (models.StoredSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.StoredSession{}, false
	}
	return *m.current, true
}

func (m *Manager) start(ctx context.Context, s models.StoredSession) {
	m.mu.Lock()
	m.current = &s
	m.generation++
	generation := m.generation
	if !s.ExpiresAt.IsZero() {
		m.expiry = time.AfterFunc(s.ExpiresAt.Sub(m.now()), func() { m.expire(generation) })
	}
	m.mu.Unlock()

	m.gateway.SetToken(s.Token)
	for _, l := range m.listeners {
		l.SessionStarted(ctx, s.User)
	}
}

// end clears the in-memory session and notifies listeners once.
func (m *Manager) end() {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	m.current = nil
	if m.expiry != nil {
		m.expiry.Stop()
		m.expiry = nil
	}
	m.mu.Unlock()

	m.gateway.SetToken("")
	for _, l := range m.listeners {
		l.SessionEnded()
	}
}

// expire ends the session the timer was armed for. A timer left over from a
// replaced session does nothing.
func (m *Manager) expire(generation uint64) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	stale := m.current == nil || m.generation != generation
	m.mu.Unlock()
	if stale {
		return
	}

	m.logger.Info("session token expired")
	m.end()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Delete(ctx); err != nil {
		m.logger.Warn("failed to delete expired session", zap.Error(err))
	}
}

func (m *Manager) expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !m.now().Before(expiresAt)
}

// TokenExpiry reads the exp claim of a JWT without verifying it; the backend
// verifies tokens. Opaque tokens or tokens without exp yield the zero time.
func TokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
