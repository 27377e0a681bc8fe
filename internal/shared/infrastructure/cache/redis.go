// Package cache provides adapters for the application Cache port.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyMaxLength is the maximum length of a cache key.
const KeyMaxLength = 256

// ErrKeyTooLong is returned for keys longer than KeyMaxLength.
var ErrKeyTooLong = errors.New("cache key too long")

// RedisCache stores values in Redis under an optional namespace prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a new Redis-backed cache. Keys are stored as prefix+key.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(key string) (string, error) {
	if len(key) > KeyMaxLength {
		return "", fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(key))
	}
	return c.prefix + key, nil
}

// Get retrieves a value by key. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	fullKey, err := c.key(key)
	if err != nil {
		return "", false, err
	}

	val, err := c.client.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores a value with a TTL. Pass 0 for ttl to store without expiration.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	fullKey, err := c.key(key)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, fullKey, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys in one round trip.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		fullKey, err := c.key(key)
		if err != nil {
			return err
		}
		fullKeys = append(fullKeys, fullKey)
	}
	if err := c.client.Del(ctx, fullKeys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the Redis connection for health reporting.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
