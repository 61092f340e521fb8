package rules

import "fmt"

// Registry names used in diagnostics and errors.
const (
	SignalsName      = "signals"
	SafeName         = "safe"
	ThoughtsName     = "thoughts"
	WholeMessageName = "whole_message"
)

// RuleSet is the uncompiled form of all four rule tables.
type RuleSet struct {
	Signals      []Rule `toml:"signals" koanf:"signals"`
	Safe         []Rule `toml:"safe" koanf:"safe"`
	Thoughts     []Rule `toml:"thoughts" koanf:"thoughts"`
	WholeMessage []Rule `toml:"whole_message" koanf:"whole_message"`
}

// Registries holds the compiled, read-only tables.
type Registries struct {
	Signals      *Registry
	Safe         *Registry
	Thoughts     *Registry
	WholeMessage *Registry
}

// Compile validates every table and returns the compiled registries.
func (rs RuleSet) Compile() (*Registries, error) {
	signals, err := Compile(SignalsName, rs.Signals)
	if err != nil {
		return nil, err
	}
	safe, err := Compile(SafeName, rs.Safe)
	if err != nil {
		return nil, err
	}
	thoughts, err := Compile(ThoughtsName, rs.Thoughts)
	if err != nil {
		return nil, err
	}
	whole, err := Compile(WholeMessageName, rs.WholeMessage)
	if err != nil {
		return nil, err
	}

	return &Registries{
		Signals:      signals,
		Safe:         safe,
		Thoughts:     thoughts,
		WholeMessage: whole,
	}, nil
}

// Duplicates returns duplicate labels keyed by registry name.
func (r *Registries) Duplicates() map[string][]string {
	out := make(map[string][]string)
	for _, reg := range r.All() {
		if dups := reg.DuplicateLabels(); len(dups) > 0 {
			out[reg.Name()] = dups
		}
	}
	return out
}

// All returns the registries in a fixed order.
func (r *Registries) All() []*Registry {
	return []*Registry{r.Signals, r.Safe, r.Thoughts, r.WholeMessage}
}

// String summarizes registry sizes.
func (r *Registries) String() string {
	return fmt.Sprintf("signals=%d safe=%d thoughts=%d whole_message=%d",
		r.Signals.Len(), r.Safe.Len(), r.Thoughts.Len(), r.WholeMessage.Len())
}

// DefaultRegistries compiles DefaultRuleSet. The built-in tables are covered
// by tests, so a failure here is a programming error.
func DefaultRegistries() *Registries {
	regs, err := DefaultRuleSet().Compile()
	if err != nil {
		panic(fmt.Sprintf("rules: default rule set does not compile: %v", err))
	}
	return regs
}
