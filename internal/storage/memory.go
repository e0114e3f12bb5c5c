// Package storage provides brew session record implementations.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/ottobrew/internal/domain"
	"github.com/hammamikhairi/ottobrew/internal/logger"
)

// Compile-time interface check.
var _ domain.SessionStore = (*MemoryStore)(nil)

// Option configures the store.
type Option func(*MemoryStore)

// WithCapacity bounds the number of kept sessions. When full, saving a new
// session evicts the least recently updated one. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(s *MemoryStore) {
		s.capacity = max(0, n)
	}
}

// MemoryStore is an in-memory session store. Safe for concurrent access.
// Sessions are stored by value; callers never share a record with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	capacity int
	log      *logger.Logger
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore(log *logger.Logger, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]domain.Session),
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists a session. Overwrites if it already exists.
func (s *MemoryStore) Save(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving session %s (recipe=%s, status=%s)", session.ID, session.RecipeID, session.Status)
	if _, ok := s.sessions[session.ID]; !ok && s.capacity > 0 && len(s.sessions) >= s.capacity {
		s.evictOldestLocked()
	}
	s.sessions[session.ID] = *session
	return nil
}

// Load retrieves a session by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		s.log.Debug("session not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return &sess, nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	s.log.Debug("deleted session %s", id)
	return nil
}

// ListRecent returns up to limit sessions, most recently updated first.
// A limit of zero or less returns all of them.
func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, &sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	s.log.Debug("listing recent sessions, count=%d", len(out))
	return out, nil
}

func (s *MemoryStore) evictOldestLocked() {
	var oldest string
	first := true
	for id, sess := range s.sessions {
		if first || sess.UpdatedAt.Before(s.sessions[oldest].UpdatedAt) {
			oldest, first = id, false
		}
	}
	if !first {
		delete(s.sessions, oldest)
		s.log.Debug("evicted session %s", oldest)
	}
}
