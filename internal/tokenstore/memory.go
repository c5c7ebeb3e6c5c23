package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Records are copied on the way in and
// out so callers never share a TokenSet with the store.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string]TokenSet
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]TokenSet)}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, slot string) (*TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.slots[slot]
	if !ok {
		return nil, ErrNotFound
	}
	return &ts, nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, slot string, ts *TokenSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = *ts
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	return nil
}
