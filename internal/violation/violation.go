// Package violation models the findings reported by external static-analysis
// engines before they are turned into editor diagnostics.
//
// Records are plain data. Optional location fields are pointers: a nil field
// means "not reported", which is distinct from a reported zero.
package violation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoLocations is returned for a violation without any location.
	ErrNoLocations = errors.New("violation has no locations")
	// ErrNoPrimaryFile is returned when the primary location does not name a file.
	ErrNoPrimaryFile = errors.New("primary location has no file")
)

// CodeLocation points into a source file. Lines and columns are one-based.
type CodeLocation struct {
	File        *string `json:"file,omitempty" msgpack:"file,omitempty"`
	StartLine   *int    `json:"startLine,omitempty" msgpack:"start_line,omitempty"`
	StartColumn *int    `json:"startColumn,omitempty" msgpack:"start_column,omitempty"`
	EndLine     *int    `json:"endLine,omitempty" msgpack:"end_line,omitempty"`
	EndColumn   *int    `json:"endColumn,omitempty" msgpack:"end_column,omitempty"`
	Comment     *string `json:"comment,omitempty" msgpack:"comment,omitempty"`
}

// Fix is a replacement the engine proposes for the code at Location.
type Fix struct {
	Location  CodeLocation `json:"location" msgpack:"location"`
	FixedCode string       `json:"fixedCode" msgpack:"fixed_code"`
}

// Suggestion is free-form advice anchored at Location.
type Suggestion struct {
	Location CodeLocation `json:"location" msgpack:"location"`
	Message  string       `json:"message" msgpack:"message"`
}

// Violation is one finding. Severity runs from 1 (most severe) to 5.
type Violation struct {
	Rule                 string         `json:"rule" msgpack:"rule"`
	Engine               string         `json:"engine" msgpack:"engine"`
	Message              string         `json:"message" msgpack:"message"`
	Severity             int            `json:"severity" msgpack:"severity"`
	Locations            []CodeLocation `json:"locations" msgpack:"locations"`
	PrimaryLocationIndex int            `json:"primaryLocationIndex" msgpack:"primary_location_index"`
	Tags                 []string       `json:"tags,omitempty" msgpack:"tags,omitempty"`
	Resources            []string       `json:"resources,omitempty" msgpack:"resources,omitempty"`
	Fixes                []Fix          `json:"fixes,omitempty" msgpack:"fixes,omitempty"`
	Suggestions          []Suggestion   `json:"suggestions,omitempty" msgpack:"suggestions,omitempty"`
}

// FileName returns the location's file or "" when absent.
func (l CodeLocation) FileName() string {
	if l.File == nil {
		return ""
	}
	return *l.File
}

// HasFile reports whether the location names a file.
func (l CodeLocation) HasFile() bool {
	return l.File != nil && *l.File != ""
}

// InFile reports whether the location refers to file. A location without a
// file belongs to whatever file its violation is anchored in, given as fallback.
func (l CodeLocation) InFile(file, fallback string) bool {
	if l.HasFile() {
		return *l.File == file
	}
	return fallback == file
}

// Clone returns a deep copy so that rebasing never aliases caller memory.
func (l CodeLocation) Clone() CodeLocation {
	return CodeLocation{
		File:        cloneRef(l.File),
		StartLine:   cloneRef(l.StartLine),
		StartColumn: cloneRef(l.StartColumn),
		EndLine:     cloneRef(l.EndLine),
		EndColumn:   cloneRef(l.EndColumn),
		Comment:     cloneRef(l.Comment),
	}
}

func (l CodeLocation) String() string {
	var b strings.Builder
	b.WriteString(l.FileName())
	if l.StartLine != nil {
		fmt.Fprintf(&b, ":%d", *l.StartLine)
		if l.StartColumn != nil {
			fmt.Fprintf(&b, ":%d", *l.StartColumn)
		}
	}
	return b.String()
}

// PrimaryLocation resolves the location the violation is anchored at. An
// out-of-range index falls back to the first location.
func (v *Violation) PrimaryLocation() (CodeLocation, error) {
	if len(v.Locations) == 0 {
		return CodeLocation{}, ErrNoLocations
	}
	idx := v.PrimaryLocationIndex
	if idx < 0 || idx >= len(v.Locations) {
		idx = 0
	}
	loc := v.Locations[idx]
	if !loc.HasFile() {
		return CodeLocation{}, ErrNoPrimaryFile
	}
	return loc, nil
}

// Validate checks that the violation can be converted into a diagnostic.
func (v *Violation) Validate() error {
	_, err := v.PrimaryLocation()
	return err
}

// Key identifies the rule as "engine:rule".
func (v *Violation) Key() string {
	return v.Engine + ":" + v.Rule
}

// Clone returns a deep copy of the violation.
func (v *Violation) Clone() *Violation {
	if v == nil {
		return nil
	}
	out := *v
	out.Locations = make([]CodeLocation, len(v.Locations))
	for i, loc := range v.Locations {
		out.Locations[i] = loc.Clone()
	}
	out.Tags = append([]string(nil), v.Tags...)
	out.Resources = append([]string(nil), v.Resources...)
	if v.Fixes != nil {
		out.Fixes = make([]Fix, len(v.Fixes))
		for i, f := range v.Fixes {
			out.Fixes[i] = Fix{Location: f.Location.Clone(), FixedCode: f.FixedCode}
		}
	}
	if v.Suggestions != nil {
		out.Suggestions = make([]Suggestion, len(v.Suggestions))
		for i, s := range v.Suggestions {
			out.Suggestions[i] = Suggestion{Location: s.Location.Clone(), Message: s.Message}
		}
	}
	return &out
}

// Ref returns a pointer to v. Handy for filling optional location fields.
func Ref[T any](v T) *T {
	return &v
}

func cloneRef[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
