package rules

import (
	"fmt"
	"regexp"
)

// MaxPatternLength bounds a single pattern. RE2 is linear-time, but very
// large alternations still cost memory per compiled program.
const MaxPatternLength = 1000

// Rule is one entry of a rule table.
type Rule struct {
	// Label identifies the rule in diagnostics.
	Label string `toml:"label" koanf:"label"`

	// Pattern is an RE2 expression, matched case-insensitively.
	Pattern string `toml:"pattern" koanf:"pattern"`

	// Weight is added to the score when the rule matches.
	// Only meaningful for signals; ignored by veto and detection tables.
	Weight int `toml:"weight" koanf:"weight"`

	// Description explains what the rule looks for.
	Description string `toml:"description" koanf:"description"`
}

// Signal is a compiled rule.
type Signal struct {
	Label       string
	Weight      int
	Description string
	pattern     *regexp.Regexp
}

// Matches reports whether the signal's pattern occurs in text.
func (s Signal) Matches(text string) bool {
	return s.pattern.MatchString(text)
}

// Pattern returns the compiled expression source, including the case flag.
func (s Signal) Pattern() string {
	return s.pattern.String()
}

// Registry is an ordered, immutable list of compiled signals.
type Registry struct {
	name    string
	signals []Signal
}

// Compile validates and compiles rules into a Registry named name.
func Compile(name string, rules []Rule) (*Registry, error) {
	signals := make([]Signal, 0, len(rules))
	for i, rule := range rules {
		if rule.Label == "" {
			return nil, fmt.Errorf("%w: %s rule %d: label is required", ErrInvalidRule, name, i)
		}
		if rule.Pattern == "" {
			return nil, fmt.Errorf("%w: %s rule %s: pattern is required", ErrInvalidRule, name, rule.Label)
		}
		if len(rule.Pattern) > MaxPatternLength {
			return nil, fmt.Errorf("%w: %s rule %s: pattern too long (max %d chars)",
				ErrInvalidPattern, name, rule.Label, MaxPatternLength)
		}

		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %s rule %s: %v", ErrInvalidPattern, name, rule.Label, err)
		}

		signals = append(signals, Signal{
			Label:       rule.Label,
			Weight:      rule.Weight,
			Description: rule.Description,
			pattern:     re,
		})
	}

	return &Registry{name: name, signals: signals}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(name string, rules []Rule) *Registry {
	r, err := Compile(name, rules)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the registry name used in diagnostics.
func (r *Registry) Name() string {
	return r.name
}

// Len returns the number of signals.
func (r *Registry) Len() int {
	return len(r.signals)
}

// Signals returns a copy of the signals in registry order.
func (r *Registry) Signals() []Signal {
	out := make([]Signal, len(r.signals))
	copy(out, r.signals)
	return out
}

// Each calls fn for every signal in registry order until fn returns false.
func (r *Registry) Each(fn func(Signal) bool) {
	for _, s := range r.signals {
		if !fn(s) {
			return
		}
	}
}

// FirstMatch returns the first signal matching text.
func (r *Registry) FirstMatch(text string) (Signal, bool) {
	for _, s := range r.signals {
		if s.Matches(text) {
			return s, true
		}
	}
	return Signal{}, false
}

// AnyMatch reports whether any signal matches text.
func (r *Registry) AnyMatch(text string) bool {
	_, ok := r.FirstMatch(text)
	return ok
}

// DuplicateLabels returns labels that appear more than once, in first-seen order.
// Duplicates are legal but make diagnostics ambiguous.
func (r *Registry) DuplicateLabels() []string {
	seen := make(map[string]int, len(r.signals))
	var dups []string
	for _, s := range r.signals {
		seen[s.Label]++
		if seen[s.Label] == 2 {
			dups = append(dups, s.Label)
		}
	}
	return dups
}
