package source

import (
	"fmt"
	"math"
)

// EndOfLine is the column used when a location does not state where it ends.
// Editors clamp it to the real line length when rendering.
const EndOfLine = math.MaxInt32

// Position is a zero-based line/character pair. Character counts UTF-16 code units.
type Position struct {
	Line      int `json:"line" msgpack:"line"`
	Character int `json:"character" msgpack:"character"`
}

// Pos is shorthand for Position{Line: line, Character: char}.
func Pos(line, char int) Position {
	return Position{Line: line, Character: char}
}

// Compare orders positions by line, then character.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Character < o.Character:
		return -1
	case p.Character > o.Character:
		return 1
	}
	return 0
}

func (p Position) Before(o Position) bool { return p.Compare(o) < 0 }

func (p Position) After(o Position) bool { return p.Compare(o) > 0 }

func (p Position) String() string {
	if p.Character >= EndOfLine {
		return fmt.Sprintf("%d:eol", p.Line)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// clamp floors negative components at zero and caps the column at EndOfLine.
func (p Position) clamp() Position {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Character < 0 {
		p.Character = 0
	}
	if p.Character > EndOfLine {
		p.Character = EndOfLine
	}
	return p
}
