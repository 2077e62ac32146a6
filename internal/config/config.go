package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/tabwatch/tabwatch/internal/localstate"
)

// Config holds the configuration for the tabwatch service.
// Environment variables are parsed from the TABWATCH_ prefix,
// e.g. TABWATCH_HTTP_PORT, TABWATCH_DB_DRIVER.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8377"`

	// Persistence backend: sqlite (default) or postgres
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Browser bridge the service calls back into (reopen, active-tab query)
	BridgeURL string `envconfig:"BRIDGE_URL" default:"http://localhost:8378"`

	// Periodic safety flush of the in-progress active interval. A crash
	// loses at most this much active time.
	FlushInterval time.Duration `envconfig:"FLUSH_INTERVAL" default:"30s"`

	// How often the day-rollover check runs.
	RolloverCheckInterval time.Duration `envconfig:"ROLLOVER_CHECK_INTERVAL" default:"1m"`

	// Closed-tab archive cap; oldest records are dropped beyond this.
	MaxClosedTabs int `envconfig:"MAX_CLOSED_TABS" default:"100"`
}

// ResolveDefaults validates the driver choice and derives the SQLite path
// when unset.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			p, err := localstate.DBPath()
			if err != nil {
				return fmt.Errorf("derive sqlite path: %w", err)
			}
			c.SQLitePath = p
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("TABWATCH_POSTGRES_DSN required for postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	if c.MaxClosedTabs <= 0 {
		return fmt.Errorf("MAX_CLOSED_TABS must be positive, got %d", c.MaxClosedTabs)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("FLUSH_INTERVAL must be positive, got %s", c.FlushInterval)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("TABWATCH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("bridge_url", cfg.BridgeURL).
		Dur("flush_interval", cfg.FlushInterval).
		Int("max_closed_tabs", cfg.MaxClosedTabs).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for unit tests: in-memory friendly
// defaults, no environment access.
func NewForTesting() *Config {
	return &Config{
		HTTPPort:              8377,
		DBDriver:              "sqlite",
		SQLitePath:            "",
		BridgeURL:             "http://localhost:8378",
		FlushInterval:         30 * time.Second,
		RolloverCheckInterval: time.Minute,
		MaxClosedTabs:         100,
	}
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
