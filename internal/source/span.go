package source

import (
	"fmt"
)

// Range is a half-open interval [Start, End) between two positions.
type Range struct {
	Start Position `json:"start" msgpack:"start"`
	End   Position `json:"end" msgpack:"end"`
}

// NewRange builds a range from zero-based coordinates. Negative values are
// floored at zero and an end before the start collapses onto the start.
func NewRange(startLine, startChar, endLine, endChar int) Range {
	r := Range{
		Start: Position{Line: startLine, Character: startChar}.clamp(),
		End:   Position{Line: endLine, Character: endChar}.clamp(),
	}
	if r.End.Before(r.Start) {
		r.End = r.Start
	}
	return r
}

// Empty reports whether the range is a point.
func (r Range) Empty() bool {
	return r.Start == r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%s-%s)", r.Start, r.End)
}

// Contains reports whether p lies in [Start, End).
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

// Intersects reports whether the two ranges share at least one position,
// touching endpoints included. A class range ending where a diagnostic begins
// therefore still counts as intersecting it.
func (r Range) Intersects(other Range) bool {
	return !r.End.Before(other.Start) && !other.End.Before(r.Start)
}

// Cover returns the smallest range containing both r and other.
func (r Range) Cover(other Range) Range {
	if other.Start.Before(r.Start) {
		r.Start = other.Start
	}
	if other.End.After(r.End) {
		r.End = other.End
	}
	return r
}

// Lines returns the range spanning whole lines first..last.
func Lines(first, last int) Range {
	return NewRange(first, 0, last, EndOfLine)
}
