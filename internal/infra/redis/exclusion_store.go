package redis

import (
	"context"
	"fmt"

	"adaptive-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// mergeScript appends each (question, normalized) pair whose normalized form
// is new. The list and the index hash change together.
// KEYS[1] list, KEYS[2] index hash; ARGV = q1, n1, q2, n2, ...
var mergeScript = redis.NewScript(`
local added = 0
for i = 1, #ARGV, 2 do
  if redis.call('HSETNX', KEYS[2], ARGV[i + 1], 1) == 1 then
    redis.call('RPUSH', KEYS[1], ARGV[i])
    added = added + 1
  end
end
return added
`)

// ExclusionStore keeps the per-user exclusion list.
// List:  RPUSH excl:list:{username} <question>
// Index: HSET  excl:index:{username} <normalized> 1
// The key kind comes before the username, so no username can name another
// user's key.
type ExclusionStore struct {
	client *redis.Client
}

func NewExclusionStore(client *redis.Client) *ExclusionStore {
	return &ExclusionStore{client: client}
}

func (s *ExclusionStore) Count(ctx context.Context, username string) (int, error) {
	n, err := s.client.LLen(ctx, s.listKey(username)).Result()
	if err != nil {
		return 0, fmt.Errorf("count exclusions: %w", err)
	}
	return int(n), nil
}

func (s *ExclusionStore) List(ctx context.Context, username string) ([]string, error) {
	list, err := s.client.LRange(ctx, s.listKey(username), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}
	return list, nil
}

func (s *ExclusionStore) Merge(ctx context.Context, username string, entries []domain.ExclusionEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, 2*len(entries))
	for _, e := range entries {
		args = append(args, e.Question, e.Normalized)
	}
	added, err := mergeScript.Run(ctx, s.client, []string{s.listKey(username), s.indexKey(username)}, args...).Int()
	if err != nil {
		return 0, fmt.Errorf("merge exclusions: %w", err)
	}
	return added, nil
}

func (s *ExclusionStore) Wipe(ctx context.Context) error {
	return deleteByPattern(ctx, s.client, "excl:*")
}

func (s *ExclusionStore) listKey(username string) string {
	return "excl:list:" + username
}

func (s *ExclusionStore) indexKey(username string) string {
	return "excl:index:" + username
}
