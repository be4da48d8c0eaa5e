package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	// Database
	DBPath      string `validate:"required"`
	PrefsDBPath string `validate:"required"`

	// AMQP (optional; empty URL disables transaction events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Background notifier
	SummaryInterval time.Duration

	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`
}

func Load() *Config {
	return &Config{
		DBPath:      getEnv("FINANCE_DB_PATH", "./data/finance.db"),
		PrefsDBPath: getEnv("FINANCE_PREFS_PATH", "./data/prefs.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financetrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		SummaryInterval: getEnvDuration("SUMMARY_INTERVAL", 24*time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			verrs = fieldErrs
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Sprintf("invalid %s: failed '%s' constraint", fe.Field(), fe.Tag()))
		}
		if len(verrs) == 0 {
			errs = append(errs, err.Error())
		}
	}

	// Make sure the database directories exist or can be created.
	for _, p := range []string{c.DBPath, c.PrefsDBPath} {
		if p == "" {
			continue
		}
		dir := filepath.Dir(p)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SummaryInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid summary interval %v: must be at least 1 minute", c.SummaryInterval))
	} else if c.SummaryInterval > 7*24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid summary interval %v: must be at most 7 days", c.SummaryInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// SlogLevel maps the configured log level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
