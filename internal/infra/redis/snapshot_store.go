package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 100

// fetchConcurrency bounds the GET fan-out after a scan.
const fetchConcurrency = 8

// SnapshotStore keeps denormalized attempt evidence in Redis as JSON values
// under quiz_attempt:{attemptID} keys with a per-entry TTL. The store is
// best-effort: expiry between scan and fetch is treated as absence.
type SnapshotStore struct {
	client *redis.Client
}

func NewSnapshotStore(client *redis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

func (s *SnapshotStore) Put(ctx context.Context, attemptID string, snapshot domain.AttemptSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, app.SnapshotKey(attemptID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// ScanAll returns every live snapshot under the prefix. The SCAN cursor is
// iterated to completion before values are fetched concurrently; total cost
// scales with the live snapshot count.
func (s *SnapshotStore) ScanAll(ctx context.Context, prefix string) ([]domain.AttemptSnapshot, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("scan snapshots: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	var mu sync.Mutex
	snapshots := make([]domain.AttemptSnapshot, 0, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			data, err := s.client.Get(ctx, key).Bytes()
			if err == redis.Nil {
				// expired between scan and fetch
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch snapshot %s: %w", key, err)
			}
			var snapshot domain.AttemptSnapshot
			if err := json.Unmarshal(data, &snapshot); err != nil {
				return fmt.Errorf("unmarshal snapshot %s: %w", key, err)
			}
			mu.Lock()
			snapshots = append(snapshots, snapshot)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
