package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	HTTPAddr string

	// Postgres
	PostgresURL string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Reservation
	ReservationTTL     time.Duration
	ReserveMaxAttempts int

	// Schedulers
	SweepInterval      time.Duration
	SweepBatchSize     int
	ShowStatusInterval time.Duration

	// Auth codes
	AuthCodeTTL           time.Duration
	AuthCodePurgeInterval time.Duration

	// Identity installed at each entry point
	SystemActor  string
	DefaultActor string
}

func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		PostgresURL: getEnv("POSTGRES_URL", "postgres://localhost:5432/boxoffice?sslmode=disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ReservationTTL:     getEnvAsDuration("RESERVATION_TTL", "15m"),
		ReserveMaxAttempts: getEnvAsInt("RESERVE_MAX_ATTEMPTS", 3),

		SweepInterval:      getEnvAsDuration("SWEEP_INTERVAL", "30s"),
		SweepBatchSize:     getEnvAsInt("SWEEP_BATCH_SIZE", 100),
		ShowStatusInterval: getEnvAsDuration("SHOW_STATUS_INTERVAL", "1m"),

		AuthCodeTTL:           getEnvAsDuration("AUTH_CODE_TTL", "24h"),
		AuthCodePurgeInterval: getEnvAsDuration("AUTH_CODE_PURGE_INTERVAL", "1h"),

		SystemActor:  getEnv("SYSTEM_ACTOR", "system"),
		DefaultActor: getEnv("DEFAULT_ACTOR", "guest"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key, fallback string) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		value = fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		parsed, _ = time.ParseDuration(fallback)
	}
	return parsed
}
