package diag

import (
	"strings"

	"vigil/internal/source"
	"vigil/internal/violation"
)

// StalePrefix marks a diagnostic whose range was only approximately rebased.
const StalePrefix = "(STALE: The code has changed. Re-run the scan.) "

// DefaultRelatedMessage labels a related location that carries no comment.
const DefaultRelatedMessage = "Related location"

// Code is the rule identifier shown with a diagnostic. Target, when set, is a
// documentation link.
type Code struct {
	Value  string `json:"value"`
	Target string `json:"target,omitempty"`
}

func (c Code) String() string { return c.Value }

// Related points at a secondary location of the same finding.
type Related struct {
	URI     string       `json:"uri"`
	Range   source.Range `json:"range"`
	Message string       `json:"message"`
}

// Diagnostic is the editor-facing form of a violation. ID is assigned by the
// store and stays stable while the diagnostic lives there.
type Diagnostic struct {
	ID        uint64
	URI       string
	Range     source.Range
	Severity  Severity
	Code      Code
	Source    string
	Message   string
	Related   []Related
	Violation *violation.Violation
}

// IsStale reports whether the message carries the stale marker.
func (d *Diagnostic) IsStale() bool {
	return strings.HasPrefix(d.Message, StalePrefix)
}

// MarkStale prefixes the message once and demotes the severity.
func (d *Diagnostic) MarkStale() {
	if d.IsStale() {
		return
	}
	d.Message = StalePrefix + d.Message
	d.Severity = SevInformation
}

// Clone returns a deep copy, violation included.
func (d *Diagnostic) Clone() *Diagnostic {
	if d == nil {
		return nil
	}
	out := *d
	if d.Related != nil {
		out.Related = append([]Related(nil), d.Related...)
	}
	out.Violation = d.Violation.Clone()
	return &out
}

// Rule returns the violation's engine and rule names.
func (d *Diagnostic) Rule() (engine, rule string) {
	if d.Violation == nil {
		return "", d.Code.Value
	}
	return d.Violation.Engine, d.Violation.Rule
}
