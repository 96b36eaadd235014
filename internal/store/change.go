package store

import (
	"strconv"

	"vigil/internal/diag"
	"vigil/internal/rebase"
	"vigil/internal/source"
	"vigil/internal/trace"
	"vigil/internal/violation"
)

// ContentChange is one edit from the editor. A nil Range replaces the whole
// document.
type ContentChange struct {
	Range *source.Range
	Text  string
}

// ChangeEvent carries the edits made to one document, in the order they were
// applied.
type ChangeEvent struct {
	URI     string
	Changes []ContentChange
}

// Result is what an update did to a stored diagnostic.
type Result uint8

const (
	Kept Result = iota
	Updated
	Removed
)

func (r Result) String() string {
	switch r {
	case Kept:
		return "kept"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Update runs fn on a copy of the diagnostic with the given ID and stores the
// copy back when fn reports Updated, or drops the diagnostic on Removed.
// An unknown ID yields Removed without calling fn.
func (s *Store) Update(id uint64, fn func(*diag.Diagnostic) Result) Result {
	k, ok := s.owner[id]
	if !ok {
		return Removed
	}
	list := s.files[k]
	for i, d := range list {
		if d.ID != id {
			continue
		}
		cp := d.Clone()
		switch res := fn(cp); res {
		case Updated:
			cp.ID = id
			cp.URI = d.URI
			list[i] = cp
			return Updated
		case Removed:
			s.remove(k, func(d *diag.Diagnostic) bool { return d.ID == id })
			return Removed
		default:
			return Kept
		}
	}
	return Removed
}

// HandleChange moves the diagnostics of the edited document through each
// change in turn. Other files are not touched. It reports whether any
// diagnostic of the document changed.
func (s *Store) HandleChange(ev ChangeEvent) bool {
	k := key(ev.URI)
	if len(s.files[k]) == 0 || len(ev.Changes) == 0 {
		return false
	}
	span := trace.BeginDocument(s.tracer, "didChange", ev.URI, 0)
	changed := false
	for _, c := range ev.Changes {
		for _, id := range s.ids(k) {
			var res Result
			if c.Range == nil {
				res = s.Update(id, markStale)
			} else {
				change := rebase.Change{Range: *c.Range, Text: c.Text}
				res = s.Update(id, func(d *diag.Diagnostic) Result {
					return s.rebaseDiagnostic(d, change)
				})
			}
			if res != Kept {
				changed = true
				span.Mark("rebase", res.String(), id)
			}
		}
	}
	span.WithExtra("changes", strconv.Itoa(len(ev.Changes))).End("")
	return changed
}

func (s *Store) ids(k string) []uint64 {
	list := s.files[k]
	out := make([]uint64, len(list))
	for i, d := range list {
		out[i] = d.ID
	}
	return out
}

func markStale(d *diag.Diagnostic) Result {
	if d.IsStale() {
		return Kept
	}
	d.MarkStale()
	return Updated
}

// rebaseDiagnostic applies change to d and every location of its violation
// that lives in the same file, then rebuilds the range from the violation.
func (s *Store) rebaseDiagnostic(d *diag.Diagnostic, change rebase.Change) Result {
	_, outcome := change.Rebase(d.Range)
	if outcome == rebase.Removed {
		return Removed
	}
	v := d.Violation
	primary, err := v.PrimaryLocation()
	if err != nil {
		return Removed
	}
	file := primary.FileName()
	moved := false
	move := func(loc violation.CodeLocation) (violation.CodeLocation, bool) {
		if !loc.InFile(file, file) {
			return loc, true
		}
		r, o := change.Rebase(diag.LocationRange(loc))
		switch o {
		case rebase.Removed:
			moved = true
			return loc, false
		case rebase.Unchanged:
			return loc, true
		}
		moved = true
		return diag.WithRange(loc, r), true
	}

	primaryIdx := v.PrimaryLocationIndex
	if primaryIdx < 0 || primaryIdx >= len(v.Locations) {
		primaryIdx = 0
	}
	newPrimary := -1
	locs := make([]violation.CodeLocation, 0, len(v.Locations))
	for i, loc := range v.Locations {
		next, ok := move(loc)
		if !ok {
			continue
		}
		if i == primaryIdx {
			newPrimary = len(locs)
		}
		locs = append(locs, next)
	}
	if newPrimary < 0 {
		// The anchor was rewritten. The first surviving location of the same
		// file takes over; the diagnostic cannot move to another file.
		for i, loc := range locs {
			if loc.InFile(file, file) {
				newPrimary = i
				break
			}
		}
		if newPrimary < 0 {
			return Removed
		}
		if !locs[newPrimary].HasFile() {
			locs[newPrimary].File = violation.Ref(file)
		}
		outcome = rebase.Stale
	}
	v.Locations = locs
	v.PrimaryLocationIndex = newPrimary

	if v.Fixes != nil {
		fixes := v.Fixes[:0]
		for _, f := range v.Fixes {
			if loc, ok := move(f.Location); ok {
				f.Location = loc
				fixes = append(fixes, f)
			}
		}
		v.Fixes = fixes
	}
	if v.Suggestions != nil {
		suggestions := v.Suggestions[:0]
		for _, sg := range v.Suggestions {
			if loc, ok := move(sg.Location); ok {
				sg.Location = loc
				suggestions = append(suggestions, sg)
			}
		}
		v.Suggestions = suggestions
	}

	if outcome == rebase.Unchanged && !moved {
		return Kept
	}
	s.factory.Rebuild(d)
	if outcome == rebase.Stale {
		d.MarkStale()
	}
	return Updated
}
