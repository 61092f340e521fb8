package policy

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/thoughtguard/internal/classifier"
)

// Strategy names accepted in configuration.
const (
	StrategyThreshold = "threshold"
	StrategyRedaction = "redaction"
)

// DefaultBlockThreshold is the score at which the threshold strategy cancels.
const DefaultBlockThreshold = 50

// ErrUnknownStrategy indicates an unsupported strategy name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Config selects and tunes the decision strategy.
type Config struct {
	// Strategy is "threshold" or "redaction" (default: "threshold")
	Strategy string `koanf:"strategy"`

	// BlockThreshold is the cancel score for the threshold strategy (default: 50)
	BlockThreshold int `koanf:"block_threshold"`
}

// DefaultConfig returns the threshold strategy at the default threshold.
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyThreshold,
		BlockThreshold: DefaultBlockThreshold,
	}
}

// Validate checks the strategy name. Any integer threshold is accepted;
// zero or negative values make the strategy block more aggressively.
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyThreshold, StrategyRedaction:
		return nil
	case "":
		return fmt.Errorf("%w: strategy is required", ErrUnknownStrategy)
	default:
		return fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownStrategy, c.Strategy, StrategyThreshold, StrategyRedaction)
	}
}

// New builds the configured strategy over engine.
func New(cfg Config, engine *classifier.Engine) (Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		engine = classifier.New(nil)
	}

	if cfg.Strategy == StrategyRedaction {
		return NewRedactionStrategy(engine.Redactor), nil
	}
	return NewThresholdStrategy(engine.Scorer, cfg.BlockThreshold), nil
}
