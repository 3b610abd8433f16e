package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by LEDGERCORE_BACKEND.
const (
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// Config holds the runtime configuration, loaded from the environment.
type Config struct {
	// HTTP server
	Port     string
	APIToken string

	// Store backend
	Backend  string
	BoltPath string
	DBConn   string

	// Settlement sweep
	SweepInterval    time.Duration
	SweepConcurrency int

	// AMQP; empty URL disables messaging
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// YTD
	QualifyingFund string

	// SeedDemo populates an empty store with demo data on server start.
	SeedDemo bool
}

// Load reads the configuration from environment variables, applying
// defaults suitable for local development.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		APIToken: getEnv("API_TOKEN", "dev-token"),

		Backend:  getEnv("LEDGERCORE_BACKEND", BackendBolt),
		BoltPath: getEnv("LEDGERCORE_BOLT_PATH", "./data/ledgercore.db"),
		DBConn:   getEnv("DB_CONN_STR", buildConnStr()),

		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", time.Hour),
		SweepConcurrency: getEnvInt("SWEEP_CONCURRENCY", 4),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledgercore"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "settled_accounts"),

		QualifyingFund: getEnv("YTD_FUND", "AGQ"),

		SeedDemo: getEnv("SEED_DEMO", "false") == "true",
	}
}

// buildConnStr assembles a postgres connection string from individual
// variables when DB_CONN_STR is not set (Docker friendly).
func buildConnStr() string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "postgres")
	dbname := getEnv("DB_NAME", "ledgercore")
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// Validate checks the configuration and returns an error describing
// every problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Backend {
	case BackendBolt:
		if c.BoltPath == "" {
			problems = append(problems, "LEDGERCORE_BOLT_PATH must be set for the bolt backend")
		}
	case BackendPostgres:
		if c.DBConn == "" {
			problems = append(problems, "DB_CONN_STR must be set for the postgres backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid backend '%s': must be bolt or postgres", c.Backend))
	}

	if c.SweepInterval <= 0 {
		problems = append(problems, "SWEEP_INTERVAL must be positive")
	}
	if c.SweepConcurrency < 1 {
		problems = append(problems, "SWEEP_CONCURRENCY must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
