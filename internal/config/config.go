package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        int
	NatsURL     string
	NatsToken   string
	DatabaseURL string
	LogLevel    string

	CoachURL     string
	CoachToken   string
	CoachTimeout time.Duration
	CoachRetries int
	CoachBackoff time.Duration

	PersistRetries int
	PersistBackoff time.Duration

	PatternFile string
	APIToken    string
}

func Load() Config {
	return Config{
		Port:        envInt("ROSTRUM_PORT", 8760),
		NatsURL:     envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),

		CoachURL:     envStr("COACH_URL", ""),
		CoachToken:   envStr("COACH_API_TOKEN", ""),
		CoachTimeout: envDur("ROSTRUM_COACH_TIMEOUT", 30*time.Second),
		CoachRetries: envInt("ROSTRUM_COACH_RETRIES", 3),
		CoachBackoff: envDur("ROSTRUM_RETRY_BASE", 2*time.Second),

		PersistRetries: envInt("ROSTRUM_PERSIST_RETRIES", 3),
		PersistBackoff: envDur("ROSTRUM_PERSIST_BACKOFF", 250*time.Millisecond),

		PatternFile: envStr("ROSTRUM_PATTERN_FILE", ""),
		APIToken:    envStr("ROSTRUM_API_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
