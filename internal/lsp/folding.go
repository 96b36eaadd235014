package lsp

import (
	"sort"

	"vigil/internal/scope"
)

// buildFoldingRanges folds every multi-line class and method body. Blocks
// without a closing brace still fold to the end of the text.
func buildFoldingRanges(b scope.Boundaries) []foldingRange {
	ranges := make([]foldingRange, 0, len(b.Classes)+len(b.Methods))
	for _, blocks := range [][]scope.Block{b.Classes, b.Methods} {
		for _, blk := range blocks {
			if blk.End <= blk.Start {
				continue
			}
			ranges = append(ranges, foldingRange{StartLine: blk.Start, EndLine: blk.End, Kind: "region"})
		}
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].StartLine != ranges[j].StartLine {
			return ranges[i].StartLine < ranges[j].StartLine
		}
		return ranges[i].EndLine > ranges[j].EndLine
	})
	return ranges
}
