package source

import "unicode/utf8"

// OffsetForPosition maps a position to a byte offset in text. Lines past the
// end map to len(text); characters past the end of a line map to the line end.
func OffsetForPosition(text string, pos Position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	line := 0
	i := 0
	for i < len(text) && line < pos.Line {
		if n := lineBreakAt(text, i); n > 0 {
			line++
			i += n
			continue
		}
		i++
	}
	if line < pos.Line {
		return len(text)
	}
	units := 0
	for i < len(text) {
		if lineBreakAt(text, i) > 0 {
			break
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
		if units == pos.Character {
			break
		}
	}
	return i
}

// PositionForOffset maps a byte offset back to a position.
func PositionForOffset(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	var pos Position
	for i := 0; i < offset; {
		if n := lineBreakAt(text, i); n > 0 {
			if i+n > offset {
				break
			}
			pos.Line++
			pos.Character = 0
			i += n
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if i+size > offset {
			break
		}
		if r > 0xFFFF {
			pos.Character += 2
		} else {
			pos.Character++
		}
		i += size
	}
	return pos
}

// ApplyChange replaces the text covered by r with newText.
func ApplyChange(text string, r Range, newText string) string {
	start := OffsetForPosition(text, r.Start)
	end := OffsetForPosition(text, r.End)
	if end < start {
		end = start
	}
	return text[:start] + newText + text[end:]
}

// LineCount reports how many lines text spans.
func LineCount(text string) int {
	return len(SplitLines(text))
}
