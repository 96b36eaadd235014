package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"vigil/internal/cache"
	"vigil/internal/diag"
	"vigil/internal/store"
	"vigil/internal/trace"
	"vigil/internal/violation"
)

// DiagnoseOptions configures Diagnose.
type DiagnoseOptions struct {
	Factory *diag.Factory
	Jobs    int
	Cache   *cache.Cache
	Tracer  trace.Tracer
}

// DiagnoseResult holds the diagnostics built from one or more results files.
type DiagnoseResult struct {
	Store       *store.Store
	Diagnostics []*diag.Diagnostic
	// Warnings collects violations that were dropped, by file.
	Warnings error
}

// Diagnose loads engine results files, converts every violation and returns
// the stored diagnostics sorted for output. A results file that cannot be read
// or parsed fails the run; individual unusable violations become warnings.
func Diagnose(ctx context.Context, resultFiles []string, opts DiagnoseOptions) (*DiagnoseResult, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeCommand, "diagnose", 0)
	defer span.End("")

	loaded := make([][]*violation.Violation, len(resultFiles))
	warns := make([]error, len(resultFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(opts.Jobs, len(resultFiles)))
	for i, path := range resultFiles {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			l, err := LoadViolations(path, opts.Cache)
			if err != nil {
				return err
			}
			loaded[i], warns[i] = l.Violations, l.Dropped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	factory := opts.Factory
	if factory == nil {
		factory = diag.NewFactory(diag.DefaultLevels(), diag.FactoryOptions{})
	}
	st := store.New(store.Options{Factory: factory, Tracer: tracer})
	for i, vs := range loaded {
		if _, err := st.AddViolations(vs); err != nil {
			warns[i] = errors.Join(warns[i], err)
		}
	}

	var all []*diag.Diagnostic
	for _, uri := range st.Files() {
		all = append(all, st.ForFile(uri)...)
	}
	diag.Sort(all)

	var warnings []error
	for i, w := range warns {
		if w != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", resultFiles[i], w))
		}
	}
	return &DiagnoseResult{Store: st, Diagnostics: all, Warnings: errors.Join(warnings...)}, nil
}

// Loaded is one decoded results file.
type Loaded struct {
	Path       string
	Violations []*violation.Violation
	// Dropped lists entries that failed validation.
	Dropped error
	Cached  bool
}

// LoadViolations reads one results file. Decoded violations are cached by the
// digest of the file content.
func LoadViolations(path string, c *cache.Cache) (*Loaded, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	key := cache.Sum(content)
	if vs, ok, err := c.GetViolations(key); err == nil && ok {
		return &Loaded{Path: path, Violations: vs, Cached: true}, nil
	}

	list, err := violation.Decode(bytes.NewReader(content))
	var invalid *violation.InvalidError
	if err != nil && !errors.As(err, &invalid) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := &Loaded{Path: path, Violations: make([]*violation.Violation, len(list)), Dropped: err}
	for i := range list {
		out.Violations[i] = &list[i]
	}
	if out.Dropped == nil {
		// files with dropped entries are decoded again so the warnings repeat
		_ = c.PutViolations(key, path, out.Violations)
	}
	return out, nil
}
