// Package cache provides a Redis-backed cache for the dashboard's per-day
// summary counts. The log itself is never cached; only the tile aggregates,
// which are cheap to recompute and tolerate a short staleness window.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"hirelog/internal/activity"
	"hirelog/internal/platform/redis"
)

const keyPrefix = "hirelog:summary"

// SummaryCache implements activity.SummaryCache over Redis.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a summary cache with the given entry TTL.
func New(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func key(action string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, day.Format(activity.DayFormat), action)
}

// GetCount returns a cached count; a miss is (0, false, nil).
func (c *SummaryCache) GetCount(ctx context.Context, action string, day time.Time) (int, bool, error) {
	val, err := c.client.Get(ctx, key(action, day)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cache get: %w", err)
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		// Poisoned entry; treat as a miss so the store recomputes it.
		return 0, false, nil
	}
	return count, true, nil
}

// SetCount stores a count under the cache TTL.
func (c *SummaryCache) SetCount(ctx context.Context, action string, day time.Time, count int) error {
	if err := c.client.Set(ctx, key(action, day), strconv.Itoa(count), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// InvalidateDay removes every cached count for one calendar day.
func (c *SummaryCache) InvalidateDay(ctx context.Context, day time.Time) error {
	return c.deletePattern(ctx, fmt.Sprintf("%s:%s:*", keyPrefix, day.Format(activity.DayFormat)))
}

// InvalidateAll removes every cached summary count.
func (c *SummaryCache) InvalidateAll(ctx context.Context) error {
	return c.deletePattern(ctx, keyPrefix+":*")
}

func (c *SummaryCache) deletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
