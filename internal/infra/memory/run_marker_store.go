package memory

import (
	"context"
	"sync"
	"time"
)

// RunMarkerStore implements runmarker.Store in memory.
type RunMarkerStore struct {
	mu      sync.RWMutex
	markers map[string]time.Time
}

func NewRunMarkerStore() *RunMarkerStore {
	return &RunMarkerStore{markers: make(map[string]time.Time)}
}

func (s *RunMarkerStore) Get(ctx context.Context, ownerID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.markers[ownerID]
	return t, ok, nil
}

func (s *RunMarkerStore) Set(ctx context.Context, ownerID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[ownerID] = at
	return nil
}

func (s *RunMarkerStore) Clear(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, ownerID)
	return nil
}
