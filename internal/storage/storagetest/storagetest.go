// Package storagetest provides an in-memory Store for tests.
package storagetest

import (
	"context"
	"sync"

	"github.com/bnema/streakwatch/internal/storage"
)

// MemStore is a Store backed by a mutex-guarded in-memory state.
type MemStore struct {
	mu    sync.Mutex
	State storage.PersistedState

	LoadErr   error
	UpdateErr error
}

var _ storage.Store = (*MemStore)(nil)

func (s *MemStore) Load(ctx context.Context) (storage.PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return storage.PersistedState{}, s.LoadErr
	}
	return s.State.Clone(), nil
}

func (s *MemStore) Save(ctx context.Context, st storage.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = st.Clone()
	return nil
}

func (s *MemStore) Update(ctx context.Context, fn func(*storage.PersistedState) error) (storage.PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return storage.PersistedState{}, s.UpdateErr
	}
	next := s.State.Clone()
	if err := fn(&next); err != nil {
		return storage.PersistedState{}, err
	}
	s.State = next
	return next.Clone(), nil
}

func (s *MemStore) Close() error { return nil }
