// Package rebase moves ranges through a text edit without re-reading the
// document. It only knows positions; deciding what to do with a diagnostic
// whose range was consumed is left to the caller.
package rebase

import "vigil/internal/source"

// Outcome classifies what an edit did to a range.
type Outcome uint8

const (
	// Unchanged means the range ends at or before the edit.
	Unchanged Outcome = iota
	// Shifted means the range lies after the edit and moved with it exactly.
	Shifted
	// Stale means the range overlaps the edit and was only approximated.
	Stale
	// Removed means the edit replaced everything the range covered.
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Shifted:
		return "shifted"
	case Stale:
		return "stale"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Change replaces Range with Text.
type Change struct {
	Range source.Range
	Text  string
}

// NewEnd is the position just after the inserted text.
func (c Change) NewEnd() source.Position {
	return source.EndOf(c.Range.Start, c.Text)
}

// Translate maps a position outside the replaced span to its place after the
// edit. Positions at or before the start are kept. Positions strictly inside
// the replaced span have no exact image; Rebase never passes them here.
func (c Change) Translate(p source.Position) source.Position {
	if !p.After(c.Range.Start) {
		return p
	}
	end := c.Range.End
	newEnd := c.NewEnd()
	if p.Line > end.Line {
		p.Line += newEnd.Line - end.Line
		return p
	}
	if p.Character >= source.EndOfLine {
		return source.Position{Line: newEnd.Line, Character: source.EndOfLine}
	}
	col := newEnd.Character + p.Character - end.Character
	if col > source.EndOfLine {
		col = source.EndOfLine
	}
	if col < 0 {
		col = 0
	}
	return source.Position{Line: newEnd.Line, Character: col}
}

// Rebase returns where r lands after the change and how it got there.
// A Removed result carries r unchanged.
func (c Change) Rebase(r source.Range) (source.Range, Outcome) {
	cs, ce := c.Range.Start, c.Range.End
	s, e := r.Start, r.End

	switch {
	case !e.After(cs):
		return r, Unchanged
	case !s.Before(ce):
		return source.Range{Start: c.Translate(s), End: c.Translate(e)}, Shifted
	case !s.Before(cs) && !e.After(ce):
		return r, Removed
	case !s.After(cs) && !e.Before(ce):
		return source.Range{Start: s, End: c.Translate(e)}, Stale
	case e.Before(ce):
		// end fell inside the edit
		return source.Range{Start: s, End: cs}, Stale
	default:
		// start fell inside the edit
		return source.Range{Start: c.NewEnd(), End: c.Translate(e)}, Stale
	}
}

// Rebase applies a single change to r.
func Rebase(r source.Range, change Change) (source.Range, Outcome) {
	return change.Rebase(r)
}
