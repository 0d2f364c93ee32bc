package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

// deleteByPattern removes every key matching one of the patterns, walking the
// keyspace with SCAN.
func deleteByPattern(ctx context.Context, client *redis.Client, patterns ...string) error {
	for _, pattern := range patterns {
		var cursor uint64
		for {
			keys, next, err := client.Scan(ctx, cursor, pattern, scanBatch).Result()
			if err != nil {
				return fmt.Errorf("scan %s: %w", pattern, err)
			}
			if len(keys) > 0 {
				if err := client.Del(ctx, keys...).Err(); err != nil {
					return fmt.Errorf("delete %s: %w", pattern, err)
				}
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}
	return nil
}
