package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is an optional Redis-backed response cache for the cheap-to-serve,
// expensive-to-aggregate endpoints (tags, stats). A nil *Cache is valid and
// simply computes every time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewCache(addr string, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		logger: logger.With("component", "api-cache"),
	}
}

// GetOrCompute returns the cached JSON for key, or computes, stores and
// returns it. Concurrent misses for the same key collapse into one compute.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) ([]byte, error) {
	if c == nil {
		return computeJSON(ctx, compute)
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache get failed", "key", key, "error", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// The compute is shared by every collapsed caller; detach it from the
		// winning request so one cancelled client can't fail the rest.
		sharedCtx := context.WithoutCancel(ctx)

		data, err := computeJSON(sharedCtx, compute)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(sharedCtx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache set failed", "key", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func computeJSON(ctx context.Context, compute func(ctx context.Context) (any, error)) ([]byte, error) {
	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
