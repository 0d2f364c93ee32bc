package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"adaptive-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	store := NewSessionStore(client, time.Hour)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "s1", Username: "alice", Topic: "renal", StartingDifficulty: domain.Resident1, CreatedAt: created}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ttl := mr.TTL("session:s1"); ttl != time.Hour {
		t.Fatalf("expected session ttl, got %v", ttl)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "alice" || got.StartingDifficulty != domain.Resident1 || !got.CreatedAt.Equal(created) || got.Concluded() {
		t.Fatalf("unexpected session %+v", got)
	}

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Append(ctx, "nope", domain.SessionItem{}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected append on missing session to fail, got %v", err)
	}
}

func TestSessionStorePatchesOnlyTail(t *testing.T) {
	ctx := context.Background()
	_, client := newClient(t)
	store := NewSessionStore(client, time.Hour)
	_ = store.Create(ctx, domain.Session{ID: "s1", Username: "alice"})

	if err := store.PatchLast(ctx, "s1", domain.SessionItem{}); !errors.Is(err, domain.ErrNoPendingQuestion) {
		t.Fatalf("expected patch on empty log to fail, got %v", err)
	}
	for i := 1; i <= 3; i++ {
		item := domain.SessionItem{Ordinal: i, Question: "q", StartingDifficulty: domain.Novice3, FinalDifficulty: domain.Novice3, State: domain.ItemAsked}
		if err := store.Append(ctx, "s1", item); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	points, score := 30, 30
	patched := domain.SessionItem{
		Ordinal: 3, Question: "q", StartingDifficulty: domain.Novice3, FinalDifficulty: domain.Novice4,
		State: domain.ItemGraded,
		Grade: &domain.ItemGrade{UserAnswer: "a", Correct: true, PointsDelta: &points, ScoreAfter: &score},
	}
	if err := store.PatchLast(ctx, "s1", patched); err != nil {
		t.Fatalf("patch: %v", err)
	}

	items, err := store.Items(ctx, "s1")
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, it := range items[:2] {
		if it.State != domain.ItemAsked || it.Grade != nil {
			t.Fatalf("item %d should be untouched, got %+v", i, it)
		}
	}
	tail := items[2]
	if tail.FinalDifficulty != domain.Novice4 || tail.Grade == nil || *tail.Grade.PointsDelta != 30 {
		t.Fatalf("unexpected tail %+v", tail)
	}
}

func TestSessionStoreConcludesOnce(t *testing.T) {
	ctx := context.Background()
	_, client := newClient(t)
	store := NewSessionStore(client, 0)
	session := domain.Session{ID: "s1", Username: "alice"}
	_ = store.Create(ctx, session)

	now := time.Now().UTC()
	session.ConcludedAt = &now
	if err := store.MarkConcluded(ctx, "s1", session); err != nil {
		t.Fatalf("conclude: %v", err)
	}
	if err := store.MarkConcluded(ctx, "s1", session); !errors.Is(err, domain.ErrSessionConcluded) {
		t.Fatalf("expected second conclude to fail, got %v", err)
	}
	got, _ := store.Get(ctx, "s1")
	if !got.Concluded() {
		t.Fatalf("expected concluded session")
	}
}

func TestWipeRemovesEngineKeys(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	sessions := NewSessionStore(client, 0)
	ledger := NewLedger(client)
	_ = sessions.Create(ctx, domain.Session{ID: "s1", Username: "alice"})
	_ = ledger.Create(ctx, domain.User{Username: "alice"})
	_ = mr.Set("unrelated", "keep")

	if err := sessions.Wipe(ctx); err != nil {
		t.Fatalf("wipe sessions: %v", err)
	}
	if err := ledger.Wipe(ctx); err != nil {
		t.Fatalf("wipe ledger: %v", err)
	}
	if mr.Exists("session:s1") || mr.Exists("user:alice") || mr.Exists(leaderboardKey) {
		t.Fatalf("expected engine keys removed, have %v", mr.Keys())
	}
	if !mr.Exists("unrelated") {
		t.Fatalf("wipe must leave foreign keys alone")
	}
}
