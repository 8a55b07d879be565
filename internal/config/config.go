// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitledger/internal/money"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Database
	DBDriver string
	DBDSN    string

	// Identity provider tokens
	JWTSecret string
	JWTIssuer string

	// Ledger
	DefaultCurrency  string
	BalanceCacheSize int
	EventBuffer      int

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
}

// Load reads a local .env file when present, then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "./data/splitledger.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		DefaultCurrency:  strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		BalanceCacheSize: getEnvInt("BALANCE_CACHE_SIZE", 1024),
		EventBuffer:      getEnvInt("EVENT_BUFFER", 256),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "splitledger.events"),
	}
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("invalid database driver '%s': must be sqlite or postgres", c.DBDriver))
	}
	if c.DBDSN == "" {
		problems = append(problems, "database DSN cannot be empty")
	}

	if len(c.JWTSecret) < 32 {
		problems = append(problems, "JWT secret must be at least 32 characters")
	}

	if !money.ValidCurrency(c.DefaultCurrency) {
		problems = append(problems, fmt.Sprintf("invalid default currency '%s': must be an ISO 4217 code", c.DefaultCurrency))
	}
	if c.BalanceCacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid balance cache size %d: must be positive", c.BalanceCacheSize))
	}
	if c.EventBuffer < 1 {
		problems = append(problems, fmt.Sprintf("invalid event buffer %d: must be positive", c.EventBuffer))
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "shutdown timeout must be positive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Ignoring invalid integer setting", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("Ignoring invalid duration setting", "key", key, "value", value)
	}
	return defaultValue
}
