package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker grants a key to one holder for a TTL
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// SummaryCache stores JSON-encodable values for a TTL
type SummaryCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Backend bundles the cache and lock implementations chosen at startup
type Backend struct {
	Locker  Locker
	Cache   SummaryCache
	Kind    string
	closeFn func() error
}

// Close releases the underlying client or cleanup goroutine
func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// NewBackend uses Redis when enabled and reachable. Otherwise it falls back to
// memory when allowed.
func NewBackend(ctx context.Context, cfg config.RedisConfig, allowInMemoryFallback bool, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Enabled {
		client, err := NewRedisClient(ctx, cfg)
		if err == nil {
			logger.Info("Using Redis cache backend", zap.String("addr", cfg.Addr()))
			return newRedisBackend(client), nil
		}
		if !allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		logger.Warn("Redis unavailable, falling back to in-memory cache backend. "+
			"Delivery locks are not shared across instances.",
			zap.Error(err),
		)
	}

	store := NewInMemoryStore(time.Minute)
	return &Backend{Locker: store, Cache: store, Kind: "memory", closeFn: store.Close}, nil
}

func newRedisBackend(client *redis.Client) *Backend {
	return &Backend{
		Locker:  NewRedisLocker(client, ""),
		Cache:   NewRedisSummaryCache(client, ""),
		Kind:    "redis",
		closeFn: client.Close,
	}
}
