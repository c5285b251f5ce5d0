package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// SnapshotStore is an in-memory implementation of app.SnapshotStore with TTL
// semantics, useful for tests and redis-less demo runs.
type SnapshotStore struct {
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]snapshotEntry
}

type snapshotEntry struct {
	snapshot  domain.AttemptSnapshot
	expiresAt time.Time
}

func NewSnapshotStore() *SnapshotStore {
	return NewSnapshotStoreWithClock(time.Now)
}

// NewSnapshotStoreWithClock allows deterministic expiry in tests.
func NewSnapshotStoreWithClock(clock func() time.Time) *SnapshotStore {
	return &SnapshotStore{
		clock:   clock,
		entries: make(map[string]snapshotEntry),
	}
}

func (s *SnapshotStore) Put(_ context.Context, attemptID string, snapshot domain.AttemptSnapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[app.SnapshotKey(attemptID)] = snapshotEntry{
		snapshot:  snapshot,
		expiresAt: s.clock().Add(ttl),
	}
	return nil
}

func (s *SnapshotStore) ScanAll(_ context.Context, prefix string) ([]domain.AttemptSnapshot, error) {
	now := s.clock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshots := make([]domain.AttemptSnapshot, 0, len(s.entries))
	for key, entry := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if entry.expiresAt.Before(now) {
			continue
		}
		snapshots = append(snapshots, entry.snapshot)
	}
	return snapshots, nil
}
