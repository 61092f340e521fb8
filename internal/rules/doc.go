// Package rules holds the pattern registries used to spot leaked internal
// reasoning in outgoing messages.
//
// A RuleSet carries four flat tables of Rule records:
//   - Signals: weighted rules summed by the scorer
//   - Safe: veto rules protecting common client-facing openers
//   - Thoughts: line-level rules marking a line as internal reasoning
//   - WholeMessage: rules marking an entire message as internal narration
//
// RuleSet.Compile validates every pattern once and returns immutable
// Registries that are safe for concurrent use without locking. Every pattern
// is compiled case-insensitively with Go's RE2 engine, so matching time is
// linear in the input length regardless of the rule set.
package rules
