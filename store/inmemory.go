package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   *Session
	grant     *Grant
	expiresAt time.Time
}

// InMemoryStore is a thread-safe in-memory implementation of the Store
// interface. It backs unit tests and single-instance local development; a
// deployed relay uses RedisStore so many instances can share state.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewInMemoryStore creates a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the store's time source. Tests use this to simulate TTL
// expiry without sleeping.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) put(id string, entry memoryEntry, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.expiresAt = s.now().Add(ttl)
	s.entries[id] = entry
}

// get returns the live entry for id, lazily evicting it if its TTL elapsed.
func (s *InMemoryStore) get(id string) (memoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *InMemoryStore) PutSession(_ context.Context, id string, session *Session, ttl time.Duration) error {
	// Copy to prevent external modifications, matching the repo conventions
	// used elsewhere in this codebase.
	copied := *session
	s.put(id, memoryEntry{session: &copied}, ttl)
	return nil
}

func (s *InMemoryStore) GetSession(_ context.Context, id string) (*Session, error) {
	entry, ok := s.get(id)
	if !ok || entry.session == nil {
		return nil, ErrNotFound
	}
	copied := *entry.session
	return &copied, nil
}

func (s *InMemoryStore) PutGrant(_ context.Context, code string, grant *Grant, ttl time.Duration) error {
	copied := *grant
	s.put(code, memoryEntry{grant: &copied}, ttl)
	return nil
}

func (s *InMemoryStore) GetGrant(_ context.Context, code string) (*Grant, error) {
	entry, ok := s.get(code)
	if !ok || entry.grant == nil {
		return nil, ErrNotFound
	}
	copied := *entry.grant
	return &copied, nil
}

func (s *InMemoryStore) DeleteGrant(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, code)
	return nil
}

func (s *InMemoryStore) Ping(_ context.Context) error {
	return nil
}

var _ Store = (*InMemoryStore)(nil)
