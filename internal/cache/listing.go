package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListingCache stores rendered catalog reads. Entries are grouped under a
// generation number; Invalidate moves to a new generation so every older
// entry becomes unreachable and expires on its own TTL.
type ListingCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context) error
}

type redisListingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisListingCache creates a ListingCache backed by Redis.
func NewRedisListingCache(client *redis.Client, prefix string, ttl time.Duration) ListingCache {
	return &redisListingCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *redisListingCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *redisListingCache) entryKey(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read cache generation: %w", err)
	}
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key), nil
}

func (c *redisListingCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	fullKey, err := c.entryKey(ctx, key)
	if err != nil {
		return false, err
	}

	raw, err := c.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return true, nil
}

func (c *redisListingCache) Set(ctx context.Context, key string, value interface{}) error {
	fullKey, err := c.entryKey(ctx, key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.client.Set(ctx, fullKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *redisListingCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

type noopListingCache struct{}

// NewNoop returns a ListingCache that never hits.
func NewNoop() ListingCache {
	return noopListingCache{}
}

func (noopListingCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (noopListingCache) Set(context.Context, string, interface{}) error         { return nil }
func (noopListingCache) Invalidate(context.Context) error                       { return nil }
