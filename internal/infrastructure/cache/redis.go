// Package cache provides the shared key-value backends: a JSON summary cache
// and the per-occurrence delivery lock, on Redis or in process memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockPrefix  = "bfse:lock:"
	defaultCachePrefix = "bfse:cache:"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisLocker grants a key to the first caller until its TTL expires.
// Suitable for multiple instances sharing one Redis.
type RedisLocker struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisLocker creates a locker on an existing client
func NewRedisLocker(client redis.Cmdable, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockPrefix
	}
	return &RedisLocker{client: client, keyPrefix: keyPrefix}
}

// Acquire returns true if the key was newly taken. Uses SET NX with expiry
// as a single atomic operation.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// RedisSummaryCache stores JSON values with a TTL
type RedisSummaryCache struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisSummaryCache creates a cache on an existing client
func NewRedisSummaryCache(client redis.Cmdable, keyPrefix string) *RedisSummaryCache {
	if keyPrefix == "" {
		keyPrefix = defaultCachePrefix
	}
	return &RedisSummaryCache{client: client, keyPrefix: keyPrefix}
}

// Get decodes the cached value into dest and reports whether it was present
func (c *RedisSummaryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value as JSON for ttl
func (c *RedisSummaryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
