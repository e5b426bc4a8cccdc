package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Signing credentials are not
// here; they come from the credential provider per invocation.
type Config struct {
	Addr string

	// Postgres connection string for the delivery log. Empty means the
	// in-memory store.
	PostgresURL string

	// Redis URL for idempotent result replay. Empty disables redis.
	RedisURL string

	// Kafka brokers for mirroring delivery records. Empty disables the mirror.
	KafkaBrokers []string
	KafkaTopic   string

	// How long a completed result is replayable under its idempotency key.
	IdempotencyTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("SETFORGE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var brokers []string
	if raw := os.Getenv("SETFORGE_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:        addr,
		PostgresURL: os.Getenv("SETFORGE_POSTGRES_URL"),
		RedisURL: os.Getenv("SETFORGE_REDIS_URL"),
		KafkaBrokers:   brokers,
		KafkaTopic:     os.Getenv("SETFORGE_KAFKA_TOPIC"),
		IdempotencyTTL: envDuration("SETFORGE_IDEMPOTENCY_TTL", time.Hour),
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}
