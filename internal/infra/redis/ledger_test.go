package redis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"adaptive-quiz-service/internal/domain"
)

func TestLedgerScenario(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	ledger := NewLedger(client)

	if err := ledger.Create(ctx, domain.User{Username: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ledger.Create(ctx, domain.User{Username: "alice"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected duplicate to fail, got %v", err)
	}

	score, err := ledger.ApplyDelta(ctx, "alice", domain.PointsFor(domain.Novice3, true), true)
	if err != nil || score != 30 {
		t.Fatalf("expected 30, got %d (%v)", score, err)
	}
	score, err = ledger.ApplyDelta(ctx, "alice", domain.PointsFor(domain.Novice4, false), false)
	if err != nil || score != 10 {
		t.Fatalf("expected 10, got %d (%v)", score, err)
	}
	score, err = ledger.ApplyDelta(ctx, "alice", -50, false)
	if err != nil || score != 0 {
		t.Fatalf("expected floor at 0, got %d (%v)", score, err)
	}

	lb, err := mr.ZScore(leaderboardKey, "alice")
	if err != nil || lb != 0 {
		t.Fatalf("expected leaderboard at 0, got %v (%v)", lb, err)
	}
	user, err := ledger.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user.Score != 0 || user.Answered != 3 || user.Correct != 1 {
		t.Fatalf("unexpected counters %+v", user)
	}
	if _, err := ledger.Get(ctx, "bob"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLedgerNeverNegativeUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	ledger := NewLedger(client)
	_ = ledger.Create(ctx, domain.User{Username: "alice"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			delta := -15
			if i%3 == 0 {
				delta = 10
			}
			score, err := ledger.ApplyDelta(ctx, "alice", delta, delta > 0)
			if err != nil {
				t.Errorf("apply: %v", err)
				return
			}
			if score < 0 {
				t.Errorf("negative score %d", score)
			}
		}(i)
	}
	wg.Wait()

	user, _ := ledger.Get(ctx, "alice")
	lb, _ := mr.ZScore(leaderboardKey, "alice")
	if float64(user.Score) != lb {
		t.Fatalf("score %d and leaderboard %v diverged", user.Score, lb)
	}
	if user.Answered != 20 {
		t.Fatalf("expected 20 answers, got %d", user.Answered)
	}
}

func TestLedgerTopSkipsBlankMembers(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	ledger := NewLedger(client)
	for _, name := range []string{"amy", "ben", "cal"} {
		_ = ledger.Create(ctx, domain.User{Username: name})
	}
	_, _ = ledger.ApplyDelta(ctx, "amy", 20, true)
	_, _ = ledger.ApplyDelta(ctx, "ben", 50, true)
	_, _ = ledger.ApplyDelta(ctx, "cal", 10, true)
	if _, err := mr.ZAdd(leaderboardKey, 99, " "); err != nil {
		t.Fatalf("seed blank member: %v", err)
	}

	top, err := ledger.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].Username != "ben" || top[0].Rank != 1 || top[1].Username != "amy" || top[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard %+v", top)
	}
}
