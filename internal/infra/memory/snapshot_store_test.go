package memory

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

func TestSnapshotStoreExpiresEntries(t *testing.T) {
	now := time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC)
	store := NewSnapshotStoreWithClock(func() time.Time { return now })

	snap := domain.AttemptSnapshot{AttemptID: "a1", CompanyID: "c1"}
	if err := store.Put(context.Background(), "a1", snap, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	live, err := store.ScanAll(context.Background(), app.SnapshotKeyPrefix)
	if err != nil || len(live) != 1 {
		t.Fatalf("expected one live snapshot, got %v / %v", live, err)
	}

	now = now.Add(2 * time.Hour)
	live, err = store.ScanAll(context.Background(), app.SnapshotKeyPrefix)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected expired snapshot to be absent, got %v", live)
	}
}

func TestSnapshotStoreHonorsPrefix(t *testing.T) {
	store := NewSnapshotStore()
	if err := store.Put(context.Background(), "a1", domain.AttemptSnapshot{AttemptID: "a1"}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	live, err := store.ScanAll(context.Background(), "other_prefix:")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected no matches for foreign prefix, got %v", live)
	}
}
