package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	bags map[string]Data
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bags: make(map[string]Data)}
}

func (s *MemoryStore) Get(_ context.Context, token string) (Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.bags[token]
	if !ok {
		return Data{}, ErrNotFound
	}
	return data, nil
}

func (s *MemoryStore) Put(_ context.Context, token string, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bags[token] = data
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bags[token]; !ok {
		return ErrNotFound
	}
	delete(s.bags, token)
	return nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for token, data := range s.bags {
		if !data.ExpiresAt.IsZero() && data.ExpiresAt.Before(now) {
			delete(s.bags, token)
			purged++
		}
	}
	return purged, nil
}
