package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NextAvailableCache keeps recently computed next-available widget payloads
// for a short TTL. It is purely an optimization: every failure degrades to a
// recompute, never to an error.
type NextAvailableCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewNextAvailableCache(client *redis.Client, ttl time.Duration) *NextAvailableCache {
	return &NextAvailableCache{client: client, ttl: ttl}
}

func key(businessType string, limit int) string {
	if businessType == "" {
		businessType = "any"
	}
	return fmt.Sprintf("nextavail:%s:%d", businessType, limit)
}

func (c *NextAvailableCache) Get(ctx context.Context, businessType string, limit int) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, key(businessType, limit)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("next-available cache read failed", "error", err.Error())
		}
		return nil, false
	}
	return payload, true
}

func (c *NextAvailableCache) Set(ctx context.Context, businessType string, limit int, payload []byte) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key(businessType, limit), payload, c.ttl).Err(); err != nil {
		slog.Warn("next-available cache write failed", "error", err.Error())
	}
}

// InvalidateAll drops every cached widget payload. Called after hold
// creation and promotion; a stale read in between is acceptable because the
// acquisition path re-checks conflicts anyway.
func (c *NextAvailableCache) InvalidateAll(ctx context.Context) {
	if c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, "nextavail:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.Warn("next-available cache scan failed", "error", err.Error())
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("next-available cache invalidation failed", "error", err.Error())
	}
}
