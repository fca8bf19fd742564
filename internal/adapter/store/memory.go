package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"scout/internal/domain"
)

// MemoryStore implements domain.ThreadStore in process memory. Threads do
// not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*domain.ThreadSnapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*domain.ThreadSnapshot)}
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*domain.ThreadSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.threads[threadID]
	if !ok {
		return nil, domain.NewDomainError("MemoryStore.Load", domain.ErrThreadNotFound, threadID)
	}
	return cloneSnapshot(snap), nil
}

func (s *MemoryStore) Save(_ context.Context, snap *domain.ThreadSnapshot) error {
	if snap == nil || snap.ThreadID == "" {
		return domain.NewDomainError("MemoryStore.Save", domain.ErrInvalidInput, "thread id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[snap.ThreadID] = cloneSnapshot(snap)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[threadID]; !ok {
		return domain.NewDomainError("MemoryStore.Delete", domain.ErrThreadNotFound, threadID)
	}
	delete(s.threads, threadID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) DeleteStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, snap := range s.threads {
		if snap.UpdatedAt.Before(cutoff) {
			delete(s.threads, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func cloneSnapshot(snap *domain.ThreadSnapshot) *domain.ThreadSnapshot {
	cp := *snap
	cp.Messages = slices.Clone(snap.Messages)
	return &cp
}

var _ domain.ThreadStore = (*MemoryStore)(nil)
