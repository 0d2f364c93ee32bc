package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adaptive-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps sessions in Redis.
// Header: HSET session:{id} username topic difficulty created_at [concluded_at]
// Items:  RPUSH session:{id}:items <json item>
// Both keys share the session TTL, refreshed on every append.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session domain.Session) error {
	key := s.key(session.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"username":   session.Username,
			"topic":      session.Topic,
			"difficulty": string(session.StartingDifficulty),
			"created_at": session.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	if len(fields) == 0 {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	session := domain.Session{
		ID:                 id,
		Username:           fields["username"],
		Topic:              fields["topic"],
		StartingDifficulty: domain.ParseDifficulty(fields["difficulty"]),
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		session.CreatedAt = t
	}
	if raw, ok := fields["concluded_at"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			session.ConcludedAt = &t
		}
	}
	return session, nil
}

func (s *SessionStore) Items(ctx context.Context, id string) ([]domain.SessionItem, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	raw, err := s.client.LRange(ctx, s.itemsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	items := make([]domain.SessionItem, 0, len(raw))
	for i, r := range raw {
		var item domain.SessionItem
		if err := json.Unmarshal([]byte(r), &item); err != nil {
			return nil, fmt.Errorf("decode item %d: %w", i, err)
		}
		item.StartingDifficulty = domain.ParseDifficulty(string(item.StartingDifficulty))
		item.FinalDifficulty = domain.ParseDifficulty(string(item.FinalDifficulty))
		items = append(items, item)
	}
	return items, nil
}

func (s *SessionStore) Append(ctx context.Context, id string, item domain.SessionItem) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.itemsKey(id), data)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.itemsKey(id), s.ttl)
			pipe.Expire(ctx, s.key(id), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append item: %w", err)
	}
	return nil
}

// PatchLast overwrites the tail element with LSET -1.
func (s *SessionStore) PatchLast(ctx context.Context, id string, item domain.SessionItem) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	n, err := s.client.LLen(ctx, s.itemsKey(id)).Result()
	if err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	if n == 0 {
		return domain.ErrNoPendingQuestion
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	if err := s.client.LSet(ctx, s.itemsKey(id), -1, data).Err(); err != nil {
		return fmt.Errorf("patch item: %w", err)
	}
	return nil
}

// MarkConcluded sets concluded_at with HSETNX so only the first call wins.
func (s *SessionStore) MarkConcluded(ctx context.Context, id string, session domain.Session) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	at := time.Now().UTC()
	if session.ConcludedAt != nil {
		at = session.ConcludedAt.UTC()
	}
	set, err := s.client.HSetNX(ctx, s.key(id), "concluded_at", at.Format(time.RFC3339Nano)).Result()
	if err != nil {
		return fmt.Errorf("conclude session: %w", err)
	}
	if !set {
		return domain.ErrSessionConcluded
	}
	return nil
}

func (s *SessionStore) Wipe(ctx context.Context) error {
	return deleteByPattern(ctx, s.client, "session:*")
}

func (s *SessionStore) exists(ctx context.Context, id string) error {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) key(id string) string {
	return "session:" + id
}

func (s *SessionStore) itemsKey(id string) string {
	return "session:" + id + ":items"
}
