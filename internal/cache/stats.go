// Package cache provides a Redis-backed store for per-owner activity statistics.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/drjagan/e-logbook/internal/domain"
	"github.com/drjagan/e-logbook/internal/observability"
)

const (
	entryPrefix      = "elogbook:stats:v:"
	generationPrefix = "elogbook:stats:gen:"
)

// RedisStatsCache implements domain.StatsCache on top of go-redis.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatsCache constructs a cache whose entries expire after ttl.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStatsCache{client: client, ttl: ttl}
}

type typeEntry struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type monthEntry struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

type entry struct {
	ByType  []typeEntry  `json:"by_type"`
	Monthly []monthEntry `json:"monthly"`
}

// Get returns a nil entry on a cache miss. The generation is returned either way.
func (c *RedisStatsCache) Get(ctx context.Context, ownerID string) (*domain.ActivityStats, int64, error) {
	generation, err := c.generation(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	raw, err := c.client.Get(ctx, entryKey(ownerID, generation)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			observability.RecordStatsCacheLookup(false)
			return nil, generation, nil
		}
		return nil, 0, err
	}

	var cached entry
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, 0, fmt.Errorf("decode cached stats: %w", err)
	}
	observability.RecordStatsCacheLookup(true)

	stats := domain.ActivityStats{
		ByType:  make([]domain.TypeCount, 0, len(cached.ByType)),
		Monthly: make([]domain.MonthCount, 0, len(cached.Monthly)),
	}
	for _, t := range cached.ByType {
		stats.ByType = append(stats.ByType, domain.TypeCount{Type: domain.ActivityType(t.Type), Count: t.Count})
	}
	for _, m := range cached.Monthly {
		stats.Monthly = append(stats.Monthly, domain.MonthCount{Year: m.Year, Month: time.Month(m.Month), Count: m.Count})
	}
	return &stats, generation, nil
}

// Set stores stats for ownerID under generation. Entries of older generations
// are never read again and expire with the TTL.
func (c *RedisStatsCache) Set(ctx context.Context, ownerID string, generation int64, stats domain.ActivityStats) error {
	value := entry{
		ByType:  make([]typeEntry, 0, len(stats.ByType)),
		Monthly: make([]monthEntry, 0, len(stats.Monthly)),
	}
	for _, t := range stats.ByType {
		value.ByType = append(value.ByType, typeEntry{Type: string(t.Type), Count: t.Count})
	}
	for _, m := range stats.Monthly {
		value.Monthly = append(value.Monthly, monthEntry{Year: m.Year, Month: int(m.Month), Count: m.Count})
	}

	body, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entryKey(ownerID, generation), body, c.ttl).Err()
}

// Invalidate advances the owner's generation, retiring every stored entry.
func (c *RedisStatsCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.client.Incr(ctx, generationPrefix+ownerID).Err()
}

func (c *RedisStatsCache) generation(ctx context.Context, ownerID string) (int64, error) {
	generation, err := c.client.Get(ctx, generationPrefix+ownerID).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read stats generation: %w", err)
	}
	return generation, nil
}

func entryKey(ownerID string, generation int64) string {
	return entryPrefix + ownerID + ":" + strconv.FormatInt(generation, 10)
}
