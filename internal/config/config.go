// Package config centralises environment-driven configuration for every
// binary in this module, following the same flat env-var-with-defaults
// style the source project used for its HTTP server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration object. Each binary loads the subsets it
// needs: the CLI reads Logging, Stream, Postgres and Kafka; the server
// additionally reads Server.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
	Stream   StreamConfig
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Host string
	Port string
}

// PostgresConfig configures the pgstore backend. DSN empty means "use the
// in-memory backend instead" — Postgres is opt-in, never required.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// KafkaConfig configures event publishing. Brokers empty means "use the
// no-op publisher" — Kafka is opt-in, never required for the CLI to work.
type KafkaConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

// LoggingConfig controls the structured logger's verbosity and encoding.
type LoggingConfig struct {
	Level  string
	Format string
}

// StreamConfig tunes the CSV stream driver's retry behaviour when it sees
// ConcurrentOperationDetected from the engine.
type StreamConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Load builds a Config from the process environment, falling back to
// defaults suitable for local, dependency-free operation (memstore backend,
// no-op publisher, text logging).
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("LEDGER_SERVER_HOST", "localhost"),
			Port: getEnv("LEDGER_SERVER_PORT", "8080"),
		},
		Postgres: PostgresConfig{
			DSN:            getEnv("LEDGER_POSTGRES_DSN", ""),
			MaxConns:       int32(getEnvAsInt("LEDGER_POSTGRES_MAX_CONNS", 10)),
			ConnectTimeout: getEnvAsDuration("LEDGER_POSTGRES_CONNECT_TIMEOUT", 5*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:  getEnvAsSlice("LEDGER_KAFKA_BROKERS", nil),
			ClientID: getEnv("LEDGER_KAFKA_CLIENT_ID", "ledgerengine"),
			Topic:    getEnv("LEDGER_KAFKA_TOPIC", "ledger.events"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LEDGER_LOG_LEVEL", "info"),
			Format: getEnv("LEDGER_LOG_FORMAT", "text"),
		},
		Stream: StreamConfig{
			MaxRetries:     getEnvAsInt("LEDGER_STREAM_MAX_RETRIES", 5),
			InitialBackoff: getEnvAsDuration("LEDGER_STREAM_INITIAL_BACKOFF", 10*time.Millisecond),
			MaxBackoff:     getEnvAsDuration("LEDGER_STREAM_MAX_BACKOFF", 200*time.Millisecond),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	if value, err := strconv.Atoi(getEnv(name, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(name, "")); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsSlice(name string, defaultVal []string) []string {
	valStr := getEnv(name, "")
	if valStr == "" {
		return defaultVal
	}
	return strings.Split(valStr, ",")
}
