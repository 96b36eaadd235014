package diag

import "strings"

// Severity is the display level of a diagnostic. Non-zero values match the
// LSP DiagnosticSeverity numbering.
type Severity uint8

const (
	// SevNone means the diagnostic is suppressed and must not be stored.
	SevNone Severity = iota
	SevError
	SevWarning
	SevInformation
	SevHint
)

func (s Severity) String() string {
	switch s {
	case SevNone:
		return "NONE"
	case SevError:
		return "ERROR"
	case SevWarning:
		return "WARNING"
	case SevInformation:
		return "INFO"
	case SevHint:
		return "HINT"
	}
	return "UNKNOWN"
}

// ParseSeverity reads a configured severity name.
func ParseSeverity(name string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return SevError, true
	case "warning", "warn":
		return SevWarning, true
	case "information", "info":
		return SevInformation, true
	case "hint":
		return SevHint, true
	case "none", "off":
		return SevNone, true
	}
	return SevWarning, false
}

// SeverityResolver maps an engine severity (1 most severe .. 5) to a display severity.
type SeverityResolver interface {
	Resolve(level int) Severity
}

// Levels is a SeverityResolver backed by configured names, keyed by engine
// severity. Missing or unrecognised entries resolve to SevWarning.
type Levels map[int]string

// Resolve implements SeverityResolver.
func (l Levels) Resolve(level int) Severity {
	sev, ok := ParseSeverity(l[level])
	if !ok {
		return SevWarning
	}
	return sev
}

// DefaultLevels is used when no configuration is present.
func DefaultLevels() Levels {
	return Levels{
		1: "error",
		2: "error",
		3: "warning",
		4: "information",
		5: "information",
	}
}
