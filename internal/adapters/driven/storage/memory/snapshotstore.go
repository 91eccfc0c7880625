package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
// Snapshots are held as encoded JSON so round trips behave like the file store.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	saveErr   error
	saves     int
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string][]byte),
	}
}

// Load decodes the named snapshot into v.
func (s *SnapshotStore) Load(_ context.Context, name string, v any) error {
	s.mu.RLock()
	data, ok := s.snapshots[name]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return nil
}

// Save encodes v and replaces the named snapshot.
func (s *SnapshotStore) Save(_ context.Context, name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	s.snapshots[name] = data
	s.saves++
	return nil
}

// Location returns a pseudo path for the named snapshot.
func (s *SnapshotStore) Location(name string) string {
	return "memory://" + name
}

// Raw returns the encoded snapshot, or nil if it was never saved.
func (s *SnapshotStore) Raw(name string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[name]
}

// PutRaw stores pre-encoded snapshot bytes, for seeding tests.
func (s *SnapshotStore) PutRaw(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[name] = data
}

// FailSaves makes every subsequent Save return err. Pass nil to recover.
func (s *SnapshotStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves returns the number of successful saves.
func (s *SnapshotStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
