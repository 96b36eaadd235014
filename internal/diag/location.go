package diag

import (
	"vigil/internal/source"
	"vigil/internal/violation"
)

// LocationRange converts a one-based location into a zero-based range.
// Missing or non-positive lines and columns are floored at the first line and
// column, a missing end line means the start line, and a missing end column
// runs to the end of the line.
func LocationRange(loc violation.CodeLocation) source.Range {
	startLine := oneBased(loc.StartLine) - 1
	startCol := oneBased(loc.StartColumn) - 1
	endLine := startLine
	if loc.EndLine != nil {
		endLine = oneBased(loc.EndLine) - 1
	}
	endCol := source.EndOfLine
	if loc.EndColumn != nil {
		endCol = oneBased(loc.EndColumn) - 1
	}
	return source.NewRange(startLine, startCol, endLine, endCol)
}

// WithRange returns a copy of loc moved to r. Fields that were absent stay
// absent when r still matches their default.
func WithRange(loc violation.CodeLocation, r source.Range) violation.CodeLocation {
	out := loc.Clone()
	if loc.StartLine != nil || r.Start.Line != 0 {
		out.StartLine = violation.Ref(r.Start.Line + 1)
	}
	if loc.StartColumn != nil || r.Start.Character != 0 {
		out.StartColumn = violation.Ref(r.Start.Character + 1)
	}
	if loc.EndLine != nil || r.End.Line != r.Start.Line {
		out.EndLine = violation.Ref(r.End.Line + 1)
	}
	if r.End.Character >= source.EndOfLine {
		out.EndColumn = nil
	} else {
		out.EndColumn = violation.Ref(r.End.Character + 1)
	}
	return out
}

func oneBased(p *int) int {
	if p == nil || *p < 1 {
		return 1
	}
	return *p
}
