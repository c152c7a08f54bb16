package memory

import (
	"context"
	"sync"

	"github.com/aretw0/pangea/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Snapshot),
	}
}

// Save persists a copy of the snapshot in memory.
func (s *Store) Save(ctx context.Context, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.UIID] = *snap
	return nil
}

// Load retrieves a copy of the snapshot so callers can't mutate store state by pointer.
func (s *Store) Load(ctx context.Context, uiID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[uiID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &snap, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, uiID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, uiID)
	return nil
}

// List returns the stored UI identifiers.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
