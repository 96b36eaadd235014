// Package testkit holds invariant checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"vigil/internal/scope"
	"vigil/internal/source"
)

// CheckBoundaries verifies a scan of text:
// 1) every block satisfies 0 <= Start <= End <= last line of text
// 2) closed blocks of one kind never partially overlap; they nest or are disjoint
// 3) unterminated blocks run to the last line
func CheckBoundaries(text string, b scope.Boundaries) error {
	last := len(source.SplitLines(text)) - 1
	for _, group := range []struct {
		kind   string
		blocks []scope.Block
	}{
		{"class", b.Classes},
		{"method", b.Methods},
	} {
		for i, blk := range group.blocks {
			if blk.Start < 0 || blk.Start > blk.End || blk.End > last {
				return fmt.Errorf("%s %d: bad span %d-%d (last line %d)", group.kind, i, blk.Start, blk.End, last)
			}
			if !blk.Closed && blk.End != last {
				return fmt.Errorf("%s %d: unterminated block ends at %d, want %d", group.kind, i, blk.End, last)
			}
			for j := i + 1; j < len(group.blocks); j++ {
				if partialOverlap(blk, group.blocks[j]) {
					return fmt.Errorf("%s %d (%d-%d) and %d (%d-%d) overlap without nesting",
						group.kind, i, blk.Start, blk.End, j, group.blocks[j].Start, group.blocks[j].End)
				}
			}
		}
	}
	return nil
}

func partialOverlap(a, b scope.Block) bool {
	disjoint := a.End < b.Start || b.End < a.Start
	nested := (a.Start <= b.Start && b.End <= a.End) || (b.Start <= a.Start && a.End <= b.End)
	return !disjoint && !nested
}

// CheckBlank verifies that blanked keeps the line structure of text: the same
// number of lines and the same UTF-16 width on every line.
func CheckBlank(text, blanked string) error {
	before, after := source.SplitLines(text), source.SplitLines(blanked)
	if len(before) != len(after) {
		return fmt.Errorf("line count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		want, err := safecast.Conv[uint32](source.UTF16Len(before[i]))
		if err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		got, err := safecast.Conv[uint32](source.UTF16Len(after[i]))
		if err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		if want != got {
			return fmt.Errorf("line %d: width %d -> %d", i, want, got)
		}
	}
	return nil
}
