package app

import (
	"fmt"

	"github.com/fyrsmithlabs/thoughtguard/internal/bus"
	"github.com/fyrsmithlabs/thoughtguard/internal/config"
	"github.com/fyrsmithlabs/thoughtguard/internal/guard"
	"github.com/fyrsmithlabs/thoughtguard/internal/http"
	"github.com/fyrsmithlabs/thoughtguard/internal/logging"
	"github.com/fyrsmithlabs/thoughtguard/internal/telemetry"
)

// Config is the daemon configuration. Each section belongs to the package
// that consumes it.
type Config struct {
	Server    http.Config      `koanf:"server"`
	Guard     guard.Config     `koanf:"guard"`
	NATS      bus.Config       `koanf:"nats"`
	Metrics   MetricsConfig    `koanf:"metrics"`
	Logging   logging.Config   `koanf:"logging"`
	Telemetry telemetry.Config `koanf:"telemetry"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// NewDefaultConfig returns the configuration used when no file or
// environment overrides are present.
func NewDefaultConfig() *Config {
	return &Config{
		Server:    *http.NewDefaultConfig(),
		Guard:     *guard.NewDefaultConfig(),
		NATS:      *bus.NewDefaultConfig(),
		Metrics:   MetricsConfig{Enabled: true},
		Logging:   *logging.NewDefaultConfig(),
		Telemetry: *telemetry.NewDefaultConfig(),
	}
}

// Load reads path (optional) and THOUGHTGUARD_* environment variables on top
// of the defaults, then validates the result.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := config.Load(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Guard.Validate(); err != nil {
		return fmt.Errorf("guard: %w", err)
	}
	if err := c.NATS.Validate(); err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}
