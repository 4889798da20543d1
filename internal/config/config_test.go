package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("OUTBOX_ENABLED", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Empty(t, cfg.PostgresURL)
	require.False(t, cfg.OutboxEnabled)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 5*time.Minute, cfg.StatsCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("OUTBOX_ENABLED", "true")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	t.Setenv("STATS_CACHE_TTL", "90s")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.OutboxEnabled)
	require.Equal(t, 25, cfg.OutboxBatchSize)
	require.Equal(t, 90*time.Second, cfg.StatsCacheTTL)
	require.Equal(t, 3, cfg.RedisDB)
}
