// Package trace records what vigil does while it runs.
//
// The LSP server and the CLI open spans around each request or command, the
// diagnostic store opens a document span per operation, and rebasing marks
// each diagnostic it touches on that span by ID. Nothing is written unless a
// tracer is configured.
//
// # Usage
//
//	vigil lsp --trace=/tmp/vigil.ndjson --trace-level=debug
//	vigil scan --trace=- --trace-level=document results.json
//
// # Tracers
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: last N events in memory, dumped on failure
//   - MultiTracer: fans out to several tracers
//
// # Levels and scopes
//
// LevelCommand shows ScopeCommand events, LevelDocument adds ScopeDocument,
// LevelDebug adds ScopeDiagnostic. LevelError keeps command events in the
// ring only.
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.BeginDocument(t, "didChange", uri, parentID)
//	span.Mark("rebase", "shifted", diagID)
//	span.End("")
package trace
