// Package config defines service configuration and its loading rules.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Storage engines accepted by Config.Storage.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// CORSOrigin is echoed in Access-Control-Allow-Origin.
	CORSOrigin string `koanf:"cors_origin"`

	// Storage selects the record store: memory or postgres.
	Storage string `koanf:"storage"`

	// DatabaseURL is the PostgreSQL connection string used when Storage is postgres.
	DatabaseURL string `koanf:"database_url"`

	// RedisAddr enables the shared Redis deduper when non-empty.
	RedisAddr string `koanf:"redis_addr"`

	// RedisPassword authenticates against RedisAddr.
	RedisPassword string `koanf:"redis_password"`

	// DedupeTTLHours bounds how long a record id stays remembered in Redis.
	DedupeTTLHours int `koanf:"dedupe_ttl_hours"`

	// QueueSize bounds the in-memory record ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the in-memory deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxWatchlistLimit caps GET /api/risk?limit.
	MaxWatchlistLimit int `koanf:"max_watchlist_limit"`

	// SeedSampleData inserts the sample students when the directory is empty.
	SeedSampleData bool `koanf:"seed_sample_data"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":5000",
		CORSOrigin:        "*",
		Storage:           StorageMemory,
		DedupeTTLHours:    72,
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        100_000,
		MaxWatchlistLimit: 100,
		SeedSampleData:    true,
	}
}

// Validate reports the first invalid setting, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Storage != StorageMemory && c.Storage != StoragePostgres:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	case c.Storage == StoragePostgres && strings.TrimSpace(c.DatabaseURL) == "":
		return fmt.Errorf("%w: database_url is required for postgres storage", ErrInvalidConfig)
	case c.MaxWatchlistLimit < 1:
		return fmt.Errorf("%w: max_watchlist_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
