package diagfmt

import (
	"encoding/json"
	"io"

	"vigil/internal/diag"
	"vigil/internal/source"
)

// LocationJSON is a one-based location. End columns of ranges that run to
// the end of the line are omitted.
type LocationJSON struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col,omitempty"`
}

// NoteJSON is a related location.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// FixJSON is a replacement proposed by the engine.
type FixJSON struct {
	Location  LocationJSON `json:"location"`
	FixedCode string       `json:"fixed_code"`
}

// DiagnosticJSON is one diagnostic in JSON output.
type DiagnosticJSON struct {
	ID       uint64       `json:"id"`
	Severity string       `json:"severity"`
	Engine   string       `json:"engine,omitempty"`
	Code     string       `json:"code"`
	Help     string       `json:"help,omitempty"`
	Source   string       `json:"source"`
	Message  string       `json:"message"`
	Stale    bool         `json:"stale,omitempty"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput is the root of JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(uri string, r source.Range, mode PathMode, base string) LocationJSON {
	loc := LocationJSON{
		File:      formatPath(uri, mode, base),
		StartLine: r.Start.Line + 1,
		StartCol:  r.Start.Character + 1,
		EndLine:   r.End.Line + 1,
	}
	if r.End.Character < source.EndOfLine {
		loc.EndCol = r.End.Character + 1
	}
	return loc
}

// BuildDiagnosticsOutput formats list without serializing it. Count is the
// full length of list even when Max truncates the entries.
func BuildDiagnosticsOutput(list []*diag.Diagnostic, opts JSONOpts) DiagnosticsOutput {
	n := len(list)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, n), Count: len(list)}
	for _, d := range list[:n] {
		engine, _ := d.Rule()
		dj := DiagnosticJSON{
			ID:       d.ID,
			Severity: d.Severity.String(),
			Engine:   engine,
			Code:     d.Code.Value,
			Help:     d.Code.Target,
			Source:   d.Source,
			Message:  d.Message,
			Stale:    d.IsStale(),
			Location: makeLocation(d.URI, d.Range, opts.PathMode, opts.BaseDir),
		}
		if opts.IncludeRelated {
			for _, rel := range d.Related {
				dj.Notes = append(dj.Notes, NoteJSON{
					Message:  rel.Message,
					Location: makeLocation(rel.URI, rel.Range, opts.PathMode, opts.BaseDir),
				})
			}
		}
		if opts.IncludeFixes && d.Violation != nil {
			for _, fix := range d.Violation.Fixes {
				uri := d.URI
				if fix.Location.HasFile() {
					uri = source.FileURI(fix.Location.FileName())
				}
				dj.Fixes = append(dj.Fixes, FixJSON{
					Location:  makeLocation(uri, diag.LocationRange(fix.Location), opts.PathMode, opts.BaseDir),
					FixedCode: fix.FixedCode,
				})
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	return out
}

// JSON writes list as indented JSON.
func JSON(w io.Writer, list []*diag.Diagnostic, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(list, opts))
}
