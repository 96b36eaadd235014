// Package diag turns analysis violations into editor diagnostics.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - URI – the file of the violation's primary location.
//   - Range – zero-based, end-exclusive, derived from the primary location.
//   - Severity – resolved from configuration keyed by the engine severity.
//   - Code – the rule name, with a documentation link when exactly one
//     resource is attached.
//   - Source – "<engine> via <product>".
//   - Related – one entry per non-primary location, nil when there are none.
//   - Violation – the store-owned copy of the finding, rewritten by rebasing.
//
// # Staleness
//
// A diagnostic whose range was only approximately rebased is stale. The
// marker lives in the message (StalePrefix) so that it is visible to users and
// survives round trips through editors. MarkStale is idempotent.
//
// # Ranges
//
// LocationRange is the only conversion from one-based locations to ranges.
// Factory.Rebuild calls it for the primary and related locations, so the
// defaulting rules apply the same way at creation and after every rebase.
// A short list of rules gets its range stretched to the end of the line to
// work around ranges those rules are known to misreport.
package diag
