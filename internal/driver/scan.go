// Package driver runs the file-level work of the CLI across a worker pool.
package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"vigil/internal/cache"
	"vigil/internal/scope"
	"vigil/internal/trace"
	"vigil/internal/ui"
)

// ScanOptions configures ScanFiles.
type ScanOptions struct {
	// Jobs bounds concurrency; 0 means GOMAXPROCS.
	Jobs int
	// Cache, when set, is consulted by content digest before scanning.
	Cache    *cache.Cache
	Tracer   trace.Tracer
	Progress ProgressSink
}

// ScanResult is the outcome for one file.
type ScanResult struct {
	Path       string
	Boundaries scope.Boundaries
	Cached     bool
	Err        error
}

// ScanFiles computes class and method boundaries for files in parallel.
// Results keep the order of files. A file that cannot be read is reported in
// its result and does not stop the others; only ctx cancellation fails the
// whole run.
func ScanFiles(ctx context.Context, files []string, opts ScanOptions) ([]ScanResult, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeCommand, "scan", 0).
		WithExtra("files", fmt.Sprint(len(files)))
	defer span.End("")

	results := make([]ScanResult, len(files))
	if len(files) == 0 {
		return results, nil
	}
	for _, f := range files {
		emit(opts.Progress, ui.Event{File: f, Status: ui.StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(opts.Jobs, len(files)))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scanOne(path, opts, tracer, span.ID())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanOne(path string, opts ScanOptions, tracer trace.Tracer, parent uint64) ScanResult {
	fileSpan := trace.BeginDocument(tracer, "scan_file", path, parent)
	res := ScanResult{Path: path}

	emit(opts.Progress, ui.Event{File: path, Status: ui.StatusReading})
	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		emit(opts.Progress, ui.Event{File: path, Status: ui.StatusError})
		fileSpan.End(err.Error())
		return res
	}

	key := cache.Sum(content)
	if b, ok, err := opts.Cache.GetBoundaries(key); err == nil && ok {
		res.Boundaries, res.Cached = b, true
		emit(opts.Progress, ui.Event{File: path, Status: ui.StatusCached, Classes: len(b.Classes), Methods: len(b.Methods)})
		fileSpan.End("cached")
		return res
	}

	emit(opts.Progress, ui.Event{File: path, Status: ui.StatusScanning})
	res.Boundaries = scope.Scan(string(content))
	if err := opts.Cache.PutBoundaries(key, path, res.Boundaries); err != nil {
		trace.Point(tracer, trace.ScopeDocument, "cache_put_failed", err.Error(), fileSpan.ID())
	}
	emit(opts.Progress, ui.Event{
		File:    path,
		Status:  ui.StatusDone,
		Classes: len(res.Boundaries.Classes),
		Methods: len(res.Boundaries.Methods),
	})
	fileSpan.End("")
	return res
}

func limit(jobs, n int) int {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, n))
}
