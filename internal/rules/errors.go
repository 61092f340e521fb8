package rules

import "errors"

var (
	// ErrInvalidRule indicates a rule is missing its label or pattern.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrInvalidPattern indicates a pattern failed to compile or is too long.
	ErrInvalidPattern = errors.New("invalid rule pattern")

	// ErrInvalidRuleFile indicates a rule file could not be read or parsed.
	ErrInvalidRuleFile = errors.New("invalid rule file")
)
