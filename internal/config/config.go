// Package config centralises configuration parsing for the logbook services.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration values for the logbook services.
type Config struct {
	HTTPAddress    string
	MetricsAddress string
	CORSOrigin     string

	// PostgresURL selects the Postgres store; empty keeps records in memory.
	PostgresURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration

	KafkaBrokers       []string
	OutboxEnabled      bool
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	ConsumerGroupID    string
	ConsumerTopics     []string

	JWTSecret string
	JWTIssuer string

	LogLevel  string
	LogFormat string
}

// Load reads a .env file when present, then environment variables into Config,
// applying defaults for local dev.
func Load() Config {
	// a missing .env is the normal case outside local dev
	_ = godotenv.Load()

	return Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", ":8080"),
		MetricsAddress:     getEnv("METRICS_ADDRESS", ":9102"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getIntEnv("REDIS_DB", 0),
		StatsCacheTTL:      getDurationEnv("STATS_CACHE_TTL", 5*time.Minute),
		KafkaBrokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		OutboxEnabled:      getBoolEnv("OUTBOX_ENABLED", false),
		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 25),
		ConsumerGroupID:    getEnv("CONSUMER_GROUP_ID", "elogbook-event-log"),
		ConsumerTopics:     splitAndTrim(getEnv("CONSUMER_TOPICS", "activity_events")),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:          getEnv("JWT_ISSUER", "elogbook.identity"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
