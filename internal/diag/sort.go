package diag

import "sort"

// Sort orders diagnostics by file, start, end, severity (most severe first)
// and code, for stable output.
func Sort(list []*Diagnostic) {
	sort.SliceStable(list, func(i, j int) bool {
		di, dj := list[i], list[j]
		if di.URI != dj.URI {
			return di.URI < dj.URI
		}
		if c := di.Range.Start.Compare(dj.Range.Start); c != 0 {
			return c < 0
		}
		if c := di.Range.End.Compare(dj.Range.End); c != 0 {
			return c < 0
		}
		if di.Severity != dj.Severity {
			// SevError is 1, so lower values are more severe
			return di.Severity < dj.Severity
		}
		return di.Code.Value < dj.Code.Value
	})
}
