package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// Ledger is the in-memory user registry and score ledger. It implements both
// app.UserStore and app.ScoreLedger.
type Ledger struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewLedger() *Ledger {
	return &Ledger{users: make(map[string]*domain.User)}
}

func (l *Ledger) Create(_ context.Context, user domain.User) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.users[user.Username]; ok {
		return domain.ErrUserExists
	}
	u := user
	u.Score, u.Answered, u.Correct = 0, 0, 0
	l.users[user.Username] = &u
	return nil
}

func (l *Ledger) Get(_ context.Context, username string) (domain.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *u, nil
}

// ApplyDelta updates the user's counters and score under the lock, flooring
// the score at zero. Unknown users get an entry, matching the Redis backend.
func (l *Ledger) ApplyDelta(_ context.Context, username string, delta int, correct bool) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[username]
	if !ok {
		u = &domain.User{Username: username}
		l.users[username] = u
	}
	u.Answered++
	if correct {
		u.Correct++
	}
	u.Score += delta
	if u.Score < 0 {
		u.Score = 0
	}
	return u.Score, nil
}

// Top ranks users by score descending, ties broken by username descending to
// match ZREVRANGE ordering.
func (l *Ledger) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(l.users))
	for name, u := range l.users {
		if strings.TrimSpace(name) == "" {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{Username: name, Score: u.Score})
	}
	l.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username > entries[j].Username
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (l *Ledger) Wipe(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users = make(map[string]*domain.User)
	return nil
}
