package cache

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/SscSPs/backoffice_ledger/internal/core/ports/repositories"
	"github.com/go-redis/redis/v8"
)

// KeyPrefix namespaces account code keys in a shared Redis.
const KeyPrefix = "ledger:account:"

// RedisAccountCodeCache remembers which account codes exist. A key only says the
// account existed when it was cached; deletions must call Forget.
type RedisAccountCodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ portsrepo.AccountCodeCache = (*RedisAccountCodeCache)(nil)

// NewRedisAccountCodeCache creates a cache whose entries expire after ttl. A zero ttl keeps them forever.
func NewRedisAccountCodeCache(client *redis.Client, ttl time.Duration) *RedisAccountCodeCache {
	return &RedisAccountCodeCache{client: client, ttl: ttl}
}

func key(code string) string {
	return KeyPrefix + code
}

func (c *RedisAccountCodeCache) IsKnown(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, key(code)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up account code %s in cache: %w", code, err)
	}
	return n > 0, nil
}

func (c *RedisAccountCodeCache) MarkKnown(ctx context.Context, code string) error {
	if err := c.client.Set(ctx, key(code), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache account code %s: %w", code, err)
	}
	return nil
}

func (c *RedisAccountCodeCache) Forget(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, key(code)).Err(); err != nil {
		return fmt.Errorf("failed to evict account code %s: %w", code, err)
	}
	return nil
}
