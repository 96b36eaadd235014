package scope

import "vigil/internal/source"

// Kind classifies a scope frame.
type Kind uint8

const (
	KindClass Kind = iota + 1
	KindMethod
	// kindOther marks interface, enum and trigger bodies: claimed, never reported.
	kindOther
	// kindBlock is any other brace pair.
	kindBlock
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case kindOther:
		return "type"
	case kindBlock:
		return "block"
	}
	return "unknown"
}

// Block is a zero-based, inclusive line span. Closed is false when the
// closing brace was never found and End was extended to the last line.
type Block struct {
	Start  int  `json:"start"`
	End    int  `json:"end"`
	Closed bool `json:"closed"`
}

// Range covers the block's lines from column 0 to end of line.
func (b Block) Range() source.Range {
	return source.Lines(b.Start, b.End)
}

// Contains reports whether line falls inside the block.
func (b Block) Contains(line int) bool {
	return line >= b.Start && line <= b.End
}

// Boundaries is the result of one scan. Blocks are in declaration order, so
// Classes[i] pairs a start with its own end even when an inner class closes
// before the outer one.
type Boundaries struct {
	Classes []Block `json:"classes"`
	Methods []Block `json:"methods"`
}

func (b Boundaries) ClassStartLines() []int { return starts(b.Classes) }

func (b Boundaries) ClassEndLines() []int { return ends(b.Classes) }

func (b Boundaries) MethodStartLines() []int { return starts(b.Methods) }

func (b Boundaries) MethodEndLines() []int { return ends(b.Methods) }

// ClassAt returns the innermost class enclosing line.
func (b Boundaries) ClassAt(line int) (Block, bool) {
	return innermost(b.Classes, line)
}

// MethodAt returns the method enclosing line.
func (b Boundaries) MethodAt(line int) (Block, bool) {
	return innermost(b.Methods, line)
}

// OutermostClassAt returns the top-level class enclosing line.
func (b Boundaries) OutermostClassAt(line int) (Block, bool) {
	for _, blk := range b.Classes {
		if blk.Contains(line) {
			return blk, true
		}
	}
	return Block{}, false
}

func innermost(blocks []Block, line int) (Block, bool) {
	var (
		best  Block
		found bool
	)
	// later starts are nested deeper
	for _, blk := range blocks {
		if blk.Contains(line) && (!found || blk.Start >= best.Start) {
			best = blk
			found = true
		}
	}
	return best, found
}

func starts(blocks []Block) []int {
	out := make([]int, len(blocks))
	for i, blk := range blocks {
		out[i] = blk.Start
	}
	return out
}

func ends(blocks []Block) []int {
	out := make([]int, len(blocks))
	for i, blk := range blocks {
		out[i] = blk.End
	}
	return out
}
