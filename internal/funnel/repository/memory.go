package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"quiz_funnel_backend/internal/funnel/domain"

	"github.com/google/uuid"
)

// MemoryStore is the default SessionStore for single-replica deploys:
// a mutex-guarded map with a TTL janitor. All Update calls for a session
// serialize on the store lock, which also satisfies the one-action-at-a-
// time rule.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*memoryEntry
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type memoryEntry struct {
	session   *domain.Session
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory session store. Sessions expire ttl
// after their last update; a janitor goroutine sweeps expired entries.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[uuid.UUID]*memoryEntry),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Create stores a fresh session.
func (s *MemoryStore) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &memoryEntry{
		session:   cloneSession(session),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Get returns a copy of the session.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return cloneSession(entry.session), nil
}

// Update applies fn under the store lock and refreshes the TTL.
func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, fn func(*domain.Session) error) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}

	working := cloneSession(entry.session)
	if err := fn(working); err != nil {
		return nil, err
	}

	entry.session = working
	entry.expiresAt = time.Now().Add(s.ttl)
	return cloneSession(working), nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	interval := s.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

// cloneSession deep-copies a session through its JSON form, the same
// representation the Redis store persists.
func cloneSession(in *domain.Session) *domain.Session {
	raw, _ := json.Marshal(in)
	var out domain.Session
	_ = json.Unmarshal(raw, &out)
	return &out
}
