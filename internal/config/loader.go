// Package config provides configuration loading for thoughtguard.
//
// Each package owns its own Config section (koanf tags plus Validate); this
// package only knows how to layer a YAML file and environment variables on
// top of a pre-populated target.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix for environment overrides.
	EnvPrefix = "THOUGHTGUARD_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load populates target from a YAML file, then overrides with environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (THOUGHTGUARD_GUARD_BLOCK_THRESHOLD, ...)
//  2. YAML config file at path (skipped when path is empty or missing)
//  3. Values already present in target (defaults)
//
// Environment variables are mapped by stripping the prefix, lowercasing and
// splitting on the first underscore. Sub-sections listed in nestedSections
// are split once more:
//
//	THOUGHTGUARD_GUARD_BLOCK_THRESHOLD    -> guard.block_threshold
//	THOUGHTGUARD_NATS_CLIENT_CHANNELS     -> nats.client_channels
//	THOUGHTGUARD_TELEMETRY_SAMPLING_RATE  -> telemetry.sampling.rate
//	THOUGHTGUARD_LOGGING_CONTENT_LOG_TEXT -> logging.content.log_text
//
// Keys ending in "_channels" accept a comma-separated list. Maps such as
// logging.fields and logging.sampling.levels are only settable from YAML.
func Load(path string, target interface{}) error {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// nestedSections lists the sub-sections of each top-level section. Field
// names inside a section never start with one of these prefixes.
var nestedSections = map[string][]string{
	"logging":   {"output", "sampling", "caller", "stacktrace", "redaction", "content"},
	"telemetry": {"sampling", "metrics", "shutdown"},
}

// envKeyValue maps THOUGHTGUARD_SECTION_FIELD_NAME to section.field_name,
// or section.sub.field_name for a known sub-section.
func envKeyValue(key, value string) (string, interface{}) {
	lower := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower, value
	}

	section, field := parts[0], parts[1]
	for _, sub := range nestedSections[section] {
		if rest, ok := strings.CutPrefix(field, sub+"_"); ok && rest != "" {
			section, field = section+"."+sub, rest
			break
		}
	}

	if strings.HasSuffix(field, "_channels") {
		items := make([]string, 0)
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return section + "." + field, items
	}

	return section + "." + field, value
}

// readConfigFile returns the file content, or nil if the file does not exist.
func readConfigFile(path string) ([]byte, error) {
	cleaned := filepath.Clean(path)

	// Open once and validate the descriptor to avoid a TOCTOU race
	f, err := os.Open(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigFileProperties checks file permissions and size.
// The config may carry the NATS token, so it must not be group/world readable.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("config path is a directory")
	}

	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}
