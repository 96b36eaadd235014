package source

import (
	"testing"
)

func TestOffsetPositionRoundTrip(t *testing.T) {
	text := "class A {\r\n  s = 'é🙂';\n}\n"
	for off := 0; off <= len(text); off++ {
		pos := PositionForOffset(text, off)
		back := OffsetForPosition(text, pos)
		if back > off {
			t.Fatalf("offset %d -> %v -> %d moved forward", off, pos, back)
		}
	}
	if got := OffsetForPosition(text, Pos(1, 2)); got != len("class A {\r\n  ") {
		t.Fatalf("unexpected offset: %d", got)
	}
	if got := OffsetForPosition(text, Pos(1, EndOfLine)); text[got] != '\n' {
		t.Fatalf("end of line should stop before terminator, got %d", got)
	}
	if got := OffsetForPosition(text, Pos(99, 0)); got != len(text) {
		t.Fatalf("past-end line should map to len, got %d", got)
	}
}

func TestApplyChange(t *testing.T) {
	tests := []struct {
		name string
		text string
		r    Range
		repl string
		want string
	}{
		{"insert", "abc\ndef", NewRange(1, 1, 1, 1), "XY", "abc\ndXYef"},
		{"delete across lines", "abc\ndef", NewRange(0, 1, 1, 1), "", "aef"},
		{"replace with newline", "abc", NewRange(0, 1, 0, 2), "\n", "a\nc"},
		{"crlf document", "ab\r\ncd", NewRange(1, 0, 1, 1), "Z", "ab\r\nZd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyChange(tt.text, tt.r, tt.repl); got != tt.want {
				t.Fatalf("ApplyChange = %q, want %q", got, tt.want)
			}
		})
	}
}
