package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxRuleFileSize bounds rule files read from disk.
const maxRuleFileSize = 1024 * 1024

// LoadFile reads a TOML rule file and compiles it.
//
// Sections omitted from the file fall back to the built-in tables. A section
// that is present but empty (e.g. `safe = []`) disables that table.
// Unknown keys are rejected so that typos do not silently drop rules.
func LoadFile(path string) (RuleSet, *Registries, error) {
	info, err := os.Stat(path)
	if err != nil {
		return RuleSet{}, nil, fmt.Errorf("%w: %s: %v", ErrInvalidRuleFile, path, err)
	}
	if info.IsDir() {
		return RuleSet{}, nil, fmt.Errorf("%w: %s is a directory", ErrInvalidRuleFile, path)
	}
	if info.Size() > maxRuleFileSize {
		return RuleSet{}, nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidRuleFile, path, maxRuleFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, nil, fmt.Errorf("%w: %s: %v", ErrInvalidRuleFile, path, err)
	}

	rs, err := Parse(string(data))
	if err != nil {
		return RuleSet{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	regs, err := rs.Compile()
	if err != nil {
		return RuleSet{}, nil, fmt.Errorf("%w: %s: %w", ErrInvalidRuleFile, path, err)
	}
	return rs, regs, nil
}

// Parse decodes TOML rule data, filling omitted sections with defaults.
func Parse(data string) (RuleSet, error) {
	var rs RuleSet
	md, err := toml.Decode(data, &rs)
	if err != nil {
		return RuleSet{}, fmt.Errorf("%w: %v", ErrInvalidRuleFile, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return RuleSet{}, fmt.Errorf("%w: unknown keys: %s", ErrInvalidRuleFile, strings.Join(keys, ", "))
	}

	defaults := DefaultRuleSet()
	if !md.IsDefined(SignalsName) {
		rs.Signals = defaults.Signals
	}
	if !md.IsDefined(SafeName) {
		rs.Safe = defaults.Safe
	}
	if !md.IsDefined(ThoughtsName) {
		rs.Thoughts = defaults.Thoughts
	}
	if !md.IsDefined(WholeMessageName) {
		rs.WholeMessage = defaults.WholeMessage
	}
	return rs, nil
}
