package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"adaptive-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "leaderboard"

// createUserScript seeds the user hash and a zero leaderboard entry unless the
// user already exists.
// KEYS[1] user hash, KEYS[2] leaderboard; ARGV[1] username, ARGV[2] created_at
var createUserScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'score', 0, 'answered', 0, 'correct', 0, 'created_at', ARGV[2])
redis.call('ZADD', KEYS[2], 'NX', 0, ARGV[1])
return 1
`)

// applyDeltaScript updates counters, score and leaderboard, then compensates
// both by -score when the score went negative.
// KEYS[1] user hash, KEYS[2] leaderboard; ARGV[1] delta, ARGV[2] correct flag, ARGV[3] username
var applyDeltaScript = redis.NewScript(`
redis.call('HINCRBY', KEYS[1], 'answered', 1)
if ARGV[2] == '1' then
  redis.call('HINCRBY', KEYS[1], 'correct', 1)
end
local score = redis.call('HINCRBY', KEYS[1], 'score', ARGV[1])
redis.call('ZINCRBY', KEYS[2], ARGV[1], ARGV[3])
if score < 0 then
  redis.call('HINCRBY', KEYS[1], 'score', -score)
  redis.call('ZINCRBY', KEYS[2], -score, ARGV[3])
  score = 0
end
return score
`)

// Ledger stores users and scores in Redis. It implements app.UserStore and
// app.ScoreLedger.
// User:        HSET user:{username} score answered correct created_at
// Leaderboard: ZINCRBY leaderboard <delta> <username>
type Ledger struct {
	client *redis.Client
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

func (l *Ledger) Create(ctx context.Context, user domain.User) error {
	created, err := createUserScript.Run(ctx, l.client,
		[]string{l.userKey(user.Username), leaderboardKey},
		user.Username, user.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if created == 0 {
		return domain.ErrUserExists
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, username string) (domain.User, error) {
	fields, err := l.client.HGetAll(ctx, l.userKey(username)).Result()
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if len(fields) == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	user := domain.User{
		Username: username,
		Score:    atoi(fields["score"]),
		Answered: atoi(fields["answered"]),
		Correct:  atoi(fields["correct"]),
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		user.CreatedAt = t
	}
	return user, nil
}

func (l *Ledger) ApplyDelta(ctx context.Context, username string, delta int, correct bool) (int, error) {
	flag := "0"
	if correct {
		flag = "1"
	}
	score, err := applyDeltaScript.Run(ctx, l.client,
		[]string{l.userKey(username), leaderboardKey},
		delta, flag, username,
	).Int()
	if err != nil {
		return 0, fmt.Errorf("apply delta: %w", err)
	}
	return score, nil
}

// Top reads the leaderboard with ZREVRANGE WITHSCORES, skipping blank members
// and paging until limit entries are collected.
func (l *Ledger) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	entries := make([]domain.LeaderboardEntry, 0, limit)
	var start int64
	for len(entries) < limit {
		stop := start + int64(limit) - 1
		page, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, start, stop).Result()
		if err != nil {
			return nil, fmt.Errorf("fetch leaderboard: %w", err)
		}
		for _, z := range page {
			name, _ := z.Member.(string)
			if strings.TrimSpace(name) == "" {
				continue
			}
			entries = append(entries, domain.LeaderboardEntry{
				Rank:     len(entries) + 1,
				Username: name,
				Score:    int(z.Score),
			})
			if len(entries) == limit {
				break
			}
		}
		if int64(len(page)) < int64(limit) {
			break
		}
		start = stop + 1
	}
	return entries, nil
}

func (l *Ledger) Wipe(ctx context.Context) error {
	return deleteByPattern(ctx, l.client, "user:*", leaderboardKey)
}

func (l *Ledger) userKey(username string) string {
	return "user:" + username
}

func atoi(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
