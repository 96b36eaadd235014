package source

import (
	"unicode/utf8"

	"fortio.org/safecast"
)

const maxUint32 = ^uint32(0)

// SafeUint32 converts n for the wire, flooring negatives at zero and
// saturating at the uint32 limit.
func SafeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// UTF16Len counts the UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	units := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		i += size
	}
	return units
}

// lineBreakAt returns the width of the line terminator at s[i], or 0.
// "\r\n", "\n" and a lone "\r" all count.
func lineBreakAt(s string, i int) int {
	switch s[i] {
	case '\n':
		return 1
	case '\r':
		if i+1 < len(s) && s[i+1] == '\n' {
			return 2
		}
		return 1
	}
	return 0
}

// SplitLines breaks s at line terminators. The result always has at least one
// element; a trailing terminator yields a trailing empty line.
func SplitLines(s string) []string {
	lines := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(s); {
		if n := lineBreakAt(s, i); n > 0 {
			lines = append(lines, s[start:i])
			i += n
			start = i
			continue
		}
		i++
	}
	return append(lines, s[start:])
}

// EndOf returns the position reached after writing text starting at start.
func EndOf(start Position, text string) Position {
	lines := SplitLines(text)
	if len(lines) == 1 {
		return Position{Line: start.Line, Character: start.Character + UTF16Len(text)}
	}
	last := lines[len(lines)-1]
	return Position{Line: start.Line + len(lines) - 1, Character: UTF16Len(last)}
}
