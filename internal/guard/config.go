package guard

import (
	"fmt"

	"github.com/fyrsmithlabs/thoughtguard/internal/policy"
)

// Config configures the guard.
type Config struct {
	// Strategy is "threshold" or "redaction" (default: "threshold")
	Strategy string `koanf:"strategy"`

	// BlockThreshold is the cancel score for the threshold strategy (default: 50)
	BlockThreshold int `koanf:"block_threshold"`

	// RulesFile is an optional TOML rule set replacing the built-in tables
	RulesFile string `koanf:"rules_file"`

	// WatchRules reloads RulesFile when it changes on disk
	WatchRules bool `koanf:"watch_rules"`
}

// NewDefaultConfig returns the threshold strategy with built-in rules.
func NewDefaultConfig() *Config {
	p := policy.DefaultConfig()
	return &Config{
		Strategy:       p.Strategy,
		BlockThreshold: p.BlockThreshold,
	}
}

// Policy returns the strategy selection.
func (c *Config) Policy() policy.Config {
	return policy.Config{Strategy: c.Strategy, BlockThreshold: c.BlockThreshold}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	p := c.Policy()
	if err := p.Validate(); err != nil {
		return err
	}
	if c.WatchRules && c.RulesFile == "" {
		return fmt.Errorf("watch_rules requires rules_file")
	}
	return nil
}
