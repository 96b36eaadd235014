// Package store owns the live diagnostics of every open file and keeps them
// in step with edits.
//
// A Store is not safe for concurrent use. The LSP server serialises all
// requests through one goroutine; other callers must do the same.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"vigil/internal/diag"
	"vigil/internal/source"
	"vigil/internal/trace"
	"vigil/internal/violation"
)

// Options configures a Store.
type Options struct {
	// Factory re-resolves severities on Refresh and rebuilds ranges after
	// rebasing. Nil means a factory with default settings.
	Factory *diag.Factory
	// Tracer receives document and diagnostic events. Nil disables tracing.
	Tracer trace.Tracer
}

// Store maps file URIs to their diagnostics. Files without diagnostics are
// never kept. Each diagnostic gets an ID that stays fixed until it is removed.
type Store struct {
	factory *diag.Factory
	tracer  trace.Tracer
	nextID  uint64
	files   map[string][]*diag.Diagnostic
	// owner finds the file of an ID without scanning every file.
	owner map[uint64]string
}

// New creates an empty Store.
func New(opts Options) *Store {
	if opts.Factory == nil {
		opts.Factory = diag.NewFactory(diag.DefaultLevels(), diag.FactoryOptions{})
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	return &Store{
		factory: opts.Factory,
		tracer:  opts.Tracer,
		files:   make(map[string][]*diag.Diagnostic),
		owner:   make(map[uint64]string),
	}
}

// Factory returns the factory the store rebuilds diagnostics with.
func (s *Store) Factory() *diag.Factory {
	return s.factory
}

func key(uri string) string {
	return source.CanonicalURI(uri)
}

// Add stores copies of the given diagnostics next to whatever each file
// already holds and returns the IDs assigned, in input order. Nil entries and
// diagnostics whose severity is SevNone are skipped and get no ID.
func (s *Store) Add(list []*diag.Diagnostic) []uint64 {
	span := trace.Begin(s.tracer, trace.ScopeDocument, "add", 0)
	ids := make([]uint64, 0, len(list))
	for _, d := range list {
		if d == nil || d.Severity == diag.SevNone {
			continue
		}
		owned := d.Clone()
		s.nextID++
		owned.ID = s.nextID
		k := key(owned.URI)
		s.files[k] = append(s.files[k], owned)
		s.owner[owned.ID] = k
		ids = append(ids, owned.ID)
	}
	span.WithExtra("stored", strconv.Itoa(len(ids))).End("")
	return ids
}

// AddViolations converts and stores violations. Violations that cannot be
// anchored are skipped; their errors are joined into the returned error.
func (s *Store) AddViolations(vs []*violation.Violation) ([]uint64, error) {
	list := make([]*diag.Diagnostic, 0, len(vs))
	var errs []error
	for i, v := range vs {
		d, err := s.factory.FromViolation(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("violation %d: %w", i, err))
			continue
		}
		list = append(list, d)
	}
	return s.Add(list), errors.Join(errs...)
}

// ClearAll empties the store.
func (s *Store) ClearAll() {
	clear(s.files)
	clear(s.owner)
}

// Dispose releases everything the store holds.
func (s *Store) Dispose() {
	s.ClearAll()
}

// Clear removes the diagnostic with the given ID and reports whether it was
// present.
func (s *Store) Clear(id uint64) bool {
	k, ok := s.owner[id]
	if !ok {
		return false
	}
	s.remove(k, func(d *diag.Diagnostic) bool { return d.ID == id })
	return true
}

// ClearFiles drops every diagnostic of the given files.
func (s *Store) ClearFiles(uris ...string) {
	for _, uri := range uris {
		k := key(uri)
		for _, d := range s.files[k] {
			delete(s.owner, d.ID)
		}
		delete(s.files, k)
	}
}

// ClearFromFile removes the diagnostics of uri selected by opts and returns
// how many went. Zero options clear the whole file.
func (s *Store) ClearFromFile(uri string, opts ClearOptions) int {
	span := trace.BeginDocument(s.tracer, "clear", uri, 0)
	n := s.remove(key(uri), opts.matches)
	span.WithExtra("removed", strconv.Itoa(n)).End("")
	return n
}

// remove drops the diagnostics of file k for which drop returns true and
// prunes the file when nothing is left.
func (s *Store) remove(k string, drop func(*diag.Diagnostic) bool) int {
	list, ok := s.files[k]
	if !ok {
		return 0
	}
	kept := list[:0]
	removed := 0
	for _, d := range list {
		if drop(d) {
			delete(s.owner, d.ID)
			removed++
			continue
		}
		kept = append(kept, d)
	}
	clear(list[len(kept):])
	s.setFile(k, kept)
	return removed
}

func (s *Store) setFile(k string, list []*diag.Diagnostic) {
	if len(list) == 0 {
		delete(s.files, k)
		return
	}
	s.files[k] = list
}

// ForFile returns copies of the diagnostics of uri in insertion order.
func (s *Store) ForFile(uri string) []*diag.Diagnostic {
	list := s.files[key(uri)]
	if len(list) == 0 {
		return nil
	}
	out := make([]*diag.Diagnostic, len(list))
	for i, d := range list {
		out[i] = d.Clone()
	}
	return out
}

// Find returns copies of the diagnostics of uri whose range intersects r.
func (s *Store) Find(uri string, r source.Range) []*diag.Diagnostic {
	var out []*diag.Diagnostic
	for _, d := range s.files[key(uri)] {
		if d.Range.Intersects(r) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// Get returns a copy of the diagnostic with the given ID.
func (s *Store) Get(id uint64) (*diag.Diagnostic, bool) {
	k, ok := s.owner[id]
	if !ok {
		return nil, false
	}
	for _, d := range s.files[k] {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return nil, false
}

// Files lists the URIs that currently hold diagnostics, sorted.
func (s *Store) Files() []string {
	out := make([]string, 0, len(s.files))
	for k := range s.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len reports how many diagnostics the store holds.
func (s *Store) Len() int {
	return len(s.owner)
}

// Refresh re-resolves every severity from the factory's current levels.
// Nothing else about a diagnostic changes. Diagnostics whose level now
// resolves to SevNone are removed. It returns the files that changed.
func (s *Store) Refresh() []string {
	span := trace.Begin(s.tracer, trace.ScopeDocument, "refresh", 0)
	var changed []string
	for _, k := range s.Files() {
		dirty := false
		n := s.remove(k, func(d *diag.Diagnostic) bool {
			sev := s.factory.Resolve(d)
			if sev == diag.SevNone {
				return true
			}
			if sev != d.Severity {
				d.Severity = sev
				dirty = true
			}
			return false
		})
		if dirty || n > 0 {
			changed = append(changed, k)
		}
	}
	span.WithExtra("files", strconv.Itoa(len(changed))).End("")
	return changed
}
