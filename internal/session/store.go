package session

import (
	"context"
	"errors"
	"sync"

	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// ErrNoSession is returned by Store.Load when nothing was persisted.
var ErrNoSession = errors.New("no stored session")

// Store persists the session token between restarts.
type Store interface {
	Save(ctx context.Context, s models.StoredSession) error
	Load(ctx context.Context) (*models.StoredSession, error)
	Delete(ctx context.Context) error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	session *models.StoredSession
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, session models.StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (*models.StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, ErrNoSession
	}
	out := *s.session
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
