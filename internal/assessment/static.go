// ABOUTME: In-memory Lookup implementation for tests and mock deployments
// ABOUTME: Serves snapshots from a fixed map, with optional injected errors

package assessment

import (
	"context"
	"sync"
)

// StaticLookup is an in-memory Lookup backed by a map.
type StaticLookup struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	err       error // when set, FetchSnapshot always fails with it
}

// NewStaticLookup creates an empty StaticLookup.
func NewStaticLookup() *StaticLookup {
	return &StaticLookup{snapshots: make(map[string]*Snapshot)}
}

// Put registers a snapshot under its ID.
func (s *StaticLookup) Put(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *snap
	s.snapshots[snap.ID] = &copied
}

// Fail makes every subsequent FetchSnapshot return err.
func (s *StaticLookup) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// FetchSnapshot returns the registered snapshot or ErrNotFound.
func (s *StaticLookup) FetchSnapshot(ctx context.Context, assessmentID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}

	snap, ok := s.snapshots[assessmentID]
	if !ok {
		return nil, ErrNotFound
	}

	result := *snap
	return &result, nil
}
