package redis

import (
	"context"
	"reflect"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func evidenceSnapshot(attemptID string) domain.AttemptSnapshot {
	return domain.AttemptSnapshot{
		AttemptID:   attemptID,
		UserID:      "u1",
		UserEmail:   "alice@acme.test",
		CompanyID:   "c1",
		CompanyName: "Acme Corp",
		QuizID:      "quiz-1",
		QuizTitle:   "Safety Basics",
		Questions: []domain.QuestionEvidence{
			{
				Question: domain.Question{
					ID:      "q1",
					Content: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
					},
				},
				SelectedOptionIDs: []string{"o1", "o2"},
			},
		},
	}
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSnapshotStore(newClient(mr))
	snap := evidenceSnapshot("a1")

	if err := store.Put(context.Background(), "a1", snap, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("quiz_attempt:a1") {
		t.Fatalf("expected key quiz_attempt:a1 to be set")
	}

	live, err := store.ScanAll(context.Background(), app.SnapshotKeyPrefix)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(live))
	}
	if !reflect.DeepEqual(live[0], snap) {
		t.Fatalf("snapshot changed across round trip:\nput: %+v\ngot: %+v", snap, live[0])
	}
}

func TestSnapshotStoreOverwritesOnPut(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSnapshotStore(newClient(mr))
	first := evidenceSnapshot("a1")
	second := evidenceSnapshot("a1")
	second.QuizTitle = "Safety Basics v2"

	if err := store.Put(context.Background(), "a1", first, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(context.Background(), "a1", second, time.Hour); err != nil {
		t.Fatalf("put again: %v", err)
	}

	live, err := store.ScanAll(context.Background(), app.SnapshotKeyPrefix)
	if err != nil || len(live) != 1 {
		t.Fatalf("expected single entry after overwrite, got %v / %v", live, err)
	}
	if live[0].QuizTitle != "Safety Basics v2" {
		t.Fatalf("expected overwritten snapshot, got %+v", live[0])
	}
}

func TestSnapshotStoreTTLExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSnapshotStore(newClient(mr))
	if err := store.Put(context.Background(), "a1", evidenceSnapshot("a1"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	live, err := store.ScanAll(context.Background(), app.SnapshotKeyPrefix)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("expected expired snapshot to be gone, got %v", live)
	}
}

func TestSnapshotStoreSkipsForeignKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	store := NewSnapshotStore(client)
	if err := store.Put(context.Background(), "a1", evidenceSnapshot("a1"), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Unrelated keys in the same database must not leak into the scan.
	if err := client.Set(context.Background(), "quiz:quiz-1", "{}", 0).Err(); err != nil {
		t.Fatalf("set foreign key: %v", err)
	}

	live, err := store.ScanAll(context.Background(), app.SnapshotKeyPrefix)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(live) != 1 || live[0].AttemptID != "a1" {
		t.Fatalf("expected only the snapshot key, got %v", live)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
