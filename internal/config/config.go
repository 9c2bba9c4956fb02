// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/talentflow/internal/domain/sequence"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the dispatch queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of dispatch workers.
	WorkerCount int `koanf:"worker_count"`
	// InflightSize bounds the number of pairs tracked as in flight.
	InflightSize int `koanf:"inflight_size"`
	// TickIntervalMS is the scheduler period.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	TransportTimeoutMS int `koanf:"transport_timeout_ms"`
	BulkConcurrency    int `koanf:"bulk_concurrency"`
	ContentLimit       int `koanf:"content_limit"`

	// ConditionPolicy is wait or abandon; see sequence.Mode.
	ConditionPolicy     string `koanf:"condition_policy"`
	ConditionExpiryDays int    `koanf:"condition_expiry_days"`

	// StorageDriver is memory or sqlite.
	StorageDriver string `koanf:"storage_driver"`
	SQLitePath    string `koanf:"sqlite_path"`
	// SeedPath optionally points at a YAML file loaded into the store at start.
	SeedPath string `koanf:"seed_path"`

	SenderName string `koanf:"sender_name"`

	// OTelEndpoint enables OTLP/HTTP trace export when set.
	OTelEndpoint string `koanf:"otel_endpoint"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "json",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU() * 4,
		InflightSize:        50_000,
		TickIntervalMS:      60_000,
		TransportTimeoutMS:  10_000,
		BulkConcurrency:     8,
		ContentLimit:        3,
		ConditionPolicy:     string(sequence.ModeWait),
		ConditionExpiryDays: 14,
		StorageDriver:       DriverMemory,
		SQLitePath:          "talentflow.db",
		SenderName:          "Equipe TalentFlow",
	}
}

// TickInterval returns the scheduler period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// TransportTimeout returns the per-send transport deadline.
func (c *Config) TransportTimeout() time.Duration {
	return time.Duration(c.TransportTimeoutMS) * time.Millisecond
}

// Policy returns the step condition policy.
func (c *Config) Policy() (sequence.Policy, error) {
	mode, err := sequence.ParseMode(c.ConditionPolicy)
	if err != nil {
		return sequence.Policy{}, err
	}
	return sequence.Policy{
		Mode:   mode,
		Expiry: time.Duration(c.ConditionExpiryDays) * 24 * time.Hour,
	}, nil
}

// Validate checks value ranges. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.TickIntervalMS < 1:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.TransportTimeoutMS < 1:
		return fmt.Errorf("%w: transport_timeout_ms must be positive", ErrInvalidConfig)
	case c.BulkConcurrency < 1:
		return fmt.Errorf("%w: bulk_concurrency must be positive", ErrInvalidConfig)
	case c.ContentLimit < 0:
		return fmt.Errorf("%w: content_limit must not be negative", ErrInvalidConfig)
	case c.ConditionExpiryDays < 0:
		return fmt.Errorf("%w: condition_expiry_days must not be negative", ErrInvalidConfig)
	case c.LogFormat != "json" && c.LogFormat != "text":
		return fmt.Errorf("%w: log_format must be json or text", ErrInvalidConfig)
	}
	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
