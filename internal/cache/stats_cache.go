// Package cache implements the optional Redis layer in front of the group
// statistics query. Entries are short-lived JSON snapshots keyed by group
// and page; every scored message invalidates the whole group.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no snapshot exists for the requested page.
var ErrCacheMiss = errors.New("stats_cache: miss")

// keyStats prefixes every leaderboard snapshot key.
const keyStats = "stats:"

// StatsCache stores serialized leaderboard pages in Redis.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache wraps an existing Redis client. TTL bounds how stale a
// served page can be if an invalidation is lost.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func pageKey(groupTelegramID int64, page, pageSize int) string {
	return fmt.Sprintf("%s%d:%d:%d", keyStats, groupTelegramID, page, pageSize)
}

// GetPage returns the cached snapshot for one leaderboard page, decoded
// into dest, or ErrCacheMiss.
func (c *StatsCache) GetPage(ctx context.Context, groupTelegramID int64, page, pageSize int, dest any) error {
	data, err := c.client.Get(ctx, pageKey(groupTelegramID, page, pageSize)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetPage stores one leaderboard page with the configured TTL.
func (c *StatsCache) SetPage(ctx context.Context, groupTelegramID int64, page, pageSize int, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pageKey(groupTelegramID, page, pageSize), data, c.ttl).Err()
}

// InvalidateGroup removes every cached page for a group. Keys are walked
// with SCAN so the call stays safe on shared Redis instances.
func (c *StatsCache) InvalidateGroup(ctx context.Context, groupTelegramID int64) error {
	pattern := fmt.Sprintf("%s%d:*", keyStats, groupTelegramID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
