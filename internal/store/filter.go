package store

import (
	"strings"

	"vigil/internal/diag"
	"vigil/internal/source"
)

// RuleFilter selects diagnostics by engine and rule. An empty field matches
// anything, so an engine-only or rule-only filter is just a partly filled value.
type RuleFilter struct {
	Engine string `json:"engine,omitempty"`
	Rule   string `json:"rule,omitempty"`
}

// ParseRuleFilter reads the "engine:rule" or "rule" form used on the command
// line and in LSP requests. Only the first colon separates the engine, so rule
// names may contain colons of their own.
func ParseRuleFilter(s string) RuleFilter {
	s = strings.TrimSpace(s)
	if engine, rule, ok := strings.Cut(s, ":"); ok {
		return RuleFilter{Engine: engine, Rule: rule}
	}
	return RuleFilter{Rule: s}
}

func (f RuleFilter) String() string {
	if f.Engine == "" {
		return f.Rule
	}
	return f.Engine + ":" + f.Rule
}

// Matches reports whether d was produced by the selected engine and rule.
func (f RuleFilter) Matches(d *diag.Diagnostic) bool {
	engine, rule := d.Rule()
	if f.Engine != "" && f.Engine != engine {
		return false
	}
	if f.Rule != "" && f.Rule != rule {
		return false
	}
	return true
}

// ClearOptions narrows ClearFromFile. Nil fields do not filter. When both are
// set a diagnostic is removed only if it matches both.
type ClearOptions struct {
	Range  *source.Range
	Filter *RuleFilter
}

func (o ClearOptions) matches(d *diag.Diagnostic) bool {
	if o.Range != nil && !o.Range.Intersects(d.Range) {
		return false
	}
	if o.Filter != nil && !o.Filter.Matches(d) {
		return false
	}
	return true
}
