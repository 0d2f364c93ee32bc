package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"adaptive-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// HistoryStore keeps the newest graded answers per user.
// LPUSH history:{username} <json record>, then LTRIM 0 limit-1.
type HistoryStore struct {
	client *redis.Client
}

func NewHistoryStore(client *redis.Client) *HistoryStore {
	return &HistoryStore{client: client}
}

func (s *HistoryStore) Append(ctx context.Context, record domain.HistoryRecord, limit int) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	key := s.key(record.Username)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		if limit > 0 {
			pipe.LTrim(ctx, key, 0, int64(limit)-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *HistoryStore) List(ctx context.Context, username string, limit int) ([]domain.HistoryRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := s.client.LRange(ctx, s.key(username), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	out := make([]domain.HistoryRecord, 0, len(raw))
	for _, r := range raw {
		var rec domain.HistoryRecord
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *HistoryStore) Wipe(ctx context.Context) error {
	return deleteByPattern(ctx, s.client, "history:*")
}

func (s *HistoryStore) key(username string) string {
	return "history:" + username
}

// addTopicScript appends a topic to the ordered list the first time it is seen.
// KEYS[1] list, KEYS[2] set; ARGV[1] topic
var addTopicScript = redis.NewScript(`
if redis.call('SADD', KEYS[2], ARGV[1]) == 1 then
  redis.call('RPUSH', KEYS[1], ARGV[1])
end
return 1
`)

// TopicStore records completed topics.
// RPUSH topics:list:{username} <topic>, guarded by SADD topics:set:{username}.
type TopicStore struct {
	client *redis.Client
}

func NewTopicStore(client *redis.Client) *TopicStore {
	return &TopicStore{client: client}
}

func (s *TopicStore) AddCompleted(ctx context.Context, username, topic string) error {
	keys := []string{topicListKey(username), topicSetKey(username)}
	if err := addTopicScript.Run(ctx, s.client, keys, topic).Err(); err != nil {
		return fmt.Errorf("add topic: %w", err)
	}
	return nil
}

func (s *TopicStore) Completed(ctx context.Context, username string) ([]string, error) {
	topics, err := s.client.LRange(ctx, topicListKey(username), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

func (s *TopicStore) Wipe(ctx context.Context) error {
	return deleteByPattern(ctx, s.client, "topics:*")
}

func topicListKey(username string) string { return "topics:list:" + username }

func topicSetKey(username string) string { return "topics:set:" + username }
