package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var errCacheDisabled = errors.New("redis not available")

// cache wraps an optional Redis client; every method is a no-op without one.
type cache struct {
	redis *redis.Client
}

func (c cache) get(ctx context.Context, key string) ([]byte, error) {
	if c.redis == nil {
		return nil, errCacheDisabled
	}
	return c.redis.Get(ctx, key).Bytes()
}

func (c cache) set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.redis == nil || ttl <= 0 {
		return
	}
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}

func (c cache) invalidate(ctx context.Context, patterns ...string) {
	if c.redis == nil {
		return
	}
	removed := 0
	for _, p := range patterns {
		iter := c.redis.Scan(ctx, 0, p, 0).Iterator()
		for iter.Next(ctx) {
			if err := c.redis.Del(ctx, iter.Val()).Err(); err == nil {
				removed++
			}
		}
		if err := iter.Err(); err != nil {
			slog.Error("cache scan failed", "pattern", p, "error", err)
		}
	}
	slog.Info("Redis cache invalidated", "keys", removed)
}
