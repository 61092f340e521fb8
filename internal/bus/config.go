package bus

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/thoughtguard/internal/audit"
	"github.com/fyrsmithlabs/thoughtguard/internal/config"
)

// Defaults for the NATS adapter.
const (
	DefaultURL             = "nats://localhost:4222"
	DefaultClassifySubject = "thoughtguard.classify"
	DefaultQueueGroup      = "thoughtguard"
)

// Config configures the NATS adapter and audit stream.
type Config struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Token   config.Secret `koanf:"token"`

	ClassifySubject string `koanf:"classify_subject"`
	QueueGroup      string `koanf:"queue_group"`
	AuditSubject    string `koanf:"audit_subject"`

	// ClientChannels, when non-empty, is the only set of channels filtered
	ClientChannels []string `koanf:"client_channels"`

	// InternalChannels are never filtered
	InternalChannels []string `koanf:"internal_channels"`

	ConnectRetries uint64          `koanf:"connect_retries"`
	ConnectBackoff config.Duration `koanf:"connect_backoff"`
}

// NewDefaultConfig returns a disabled adapter with local defaults.
func NewDefaultConfig() *Config {
	return &Config{
		URL:             DefaultURL,
		ClassifySubject: DefaultClassifySubject,
		QueueGroup:      DefaultQueueGroup,
		AuditSubject:    audit.DefaultSubject,
		ConnectRetries:  5,
		ConnectBackoff:  config.Duration(time.Second),
	}
}

// Validate checks the configuration. A disabled adapter is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("url is required when nats is enabled")
	}
	for name, subject := range map[string]string{
		"classify_subject": c.ClassifySubject,
		"audit_subject":    c.AuditSubject,
	} {
		if err := validateSubject(subject); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.ConnectBackoff.Duration() <= 0 {
		return fmt.Errorf("connect_backoff must be positive")
	}
	for _, ch := range c.ClientChannels {
		for _, internal := range c.InternalChannels {
			if strings.EqualFold(ch, internal) {
				return fmt.Errorf("channel %q is both client and internal", ch)
			}
		}
	}
	return nil
}

// validateSubject rejects empty subjects and wildcards.
func validateSubject(subject string) error {
	if subject == "" {
		return fmt.Errorf("subject is required")
	}
	if strings.ContainsAny(subject, "*> \t\r\n") {
		return fmt.Errorf("subject %q must not contain wildcards or whitespace", subject)
	}
	if strings.HasPrefix(subject, ".") || strings.HasSuffix(subject, ".") || strings.Contains(subject, "..") {
		return fmt.Errorf("subject %q has an empty token", subject)
	}
	return nil
}
