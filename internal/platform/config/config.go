package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs at startup. Values come from
// the environment so main stays lean; zero-valued optional fields mean the
// corresponding backend is not configured.
type Config struct {
	Addr          string
	JWTSigningKey string

	// Auth policy knobs.
	SessionTimeout   time.Duration
	MaxLoginAttempts int
	LockoutDuration  time.Duration

	// Optional backends. Empty means "use in-memory".
	DatabaseURL string
	Redis       RedisConfig

	// Optional Kafka audit sink. Empty brokers means "log-only audit".
	KafkaBrokers    []string
	KafkaAuditTopic string
}

// RedisConfig holds connection tuning for the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables, applying the default
// auth policy (24h sessions, 5 attempts, 15m lockout) when unset.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("ADMIN_AUTH_ADDR", ":8080"),
		JWTSigningKey:    envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTimeout:   envDuration("SESSION_TIMEOUT", 24*time.Hour),
		MaxLoginAttempts: envInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:  envDuration("LOCKOUT_DURATION", 15*time.Minute),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaAuditTopic: envOr("KAFKA_AUDIT_TOPIC", "admin-auth.audit"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
