package rebase

import (
	"testing"

	"vigil/internal/source"
)

func rng(sl, sc, el, ec int) source.Range {
	return source.NewRange(sl, sc, el, ec)
}

func TestNewEnd(t *testing.T) {
	tests := []struct {
		name string
		c    Change
		want source.Position
	}{
		{"delete", Change{Range: rng(1, 2, 3, 4)}, source.Pos(1, 2)},
		{"single line", Change{Range: rng(1, 2, 1, 2), Text: "abc"}, source.Pos(1, 5)},
		{"multi line", Change{Range: rng(1, 2, 1, 2), Text: "ab\ncd\nefg"}, source.Pos(3, 3)},
		{"crlf", Change{Range: rng(0, 0, 0, 0), Text: "a\r\nb"}, source.Pos(1, 1)},
		{"trailing newline", Change{Range: rng(4, 7, 4, 9), Text: "x\n"}, source.Pos(5, 0)},
		{"surrogate pair", Change{Range: rng(0, 1, 0, 1), Text: "😀"}, source.Pos(0, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.NewEnd(); got != tt.want {
				t.Fatalf("NewEnd = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	// replace [2:4, 3:6) with "xy\nz": new end is 3:1
	c := Change{Range: rng(2, 4, 3, 6), Text: "xy\nz"}
	tests := []struct {
		in, want source.Position
	}{
		{source.Pos(0, 9), source.Pos(0, 9)},
		{source.Pos(2, 4), source.Pos(2, 4)},
		{source.Pos(3, 6), source.Pos(3, 1)},
		{source.Pos(3, 10), source.Pos(3, 5)},
		{source.Pos(7, 2), source.Pos(7, 2)},
		{source.Pos(3, source.EndOfLine), source.Pos(3, source.EndOfLine)},
	}
	for _, tt := range tests {
		if got := c.Translate(tt.in); got != tt.want {
			t.Errorf("Translate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	// removing two lines pulls later lines up
	del := Change{Range: rng(1, 0, 3, 0)}
	if got := del.Translate(source.Pos(5, 3)); got != source.Pos(3, 3) {
		t.Fatalf("Translate after deletion = %v", got)
	}
}

func TestRebaseCases(t *testing.T) {
	// edit replaces [5:10, 5:20) with "abc"; new end 5:13
	c := Change{Range: rng(5, 10, 5, 20), Text: "abc"}
	tests := []struct {
		name    string
		in      source.Range
		want    source.Range
		outcome Outcome
	}{
		{"before on earlier line", rng(1, 0, 2, 4), rng(1, 0, 2, 4), Unchanged},
		{"ends where edit starts", rng(5, 0, 5, 10), rng(5, 0, 5, 10), Unchanged},
		{"after on same line", rng(5, 25, 5, 30), rng(5, 18, 5, 23), Shifted},
		{"starts where edit ends", rng(5, 20, 5, 22), rng(5, 13, 5, 15), Shifted},
		{"after on later line", rng(8, 2, 9, 4), rng(8, 2, 9, 4), Shifted},
		{"equal to edit", rng(5, 10, 5, 20), rng(5, 10, 5, 20), Removed},
		{"inside edit", rng(5, 12, 5, 15), rng(5, 12, 5, 15), Removed},
		{"covers edit", rng(5, 2, 5, 30), rng(5, 2, 5, 23), Stale},
		{"covers edit across lines", rng(3, 0, 7, 1), rng(3, 0, 7, 1), Stale},
		{"shares start and covers", rng(5, 10, 5, 25), rng(5, 10, 5, 18), Stale},
		{"end inside edit", rng(5, 2, 5, 15), rng(5, 2, 5, 10), Stale},
		{"start inside edit", rng(5, 15, 6, 1), rng(5, 13, 6, 1), Stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := c.Rebase(tt.in)
			if outcome != tt.outcome {
				t.Fatalf("outcome = %v, want %v", outcome, tt.outcome)
			}
			if got != tt.want {
				t.Fatalf("range = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRebaseShiftByLineDelta(t *testing.T) {
	// insert two lines at the top of the file
	c := Change{Range: rng(0, 0, 0, 0), Text: "a\nb\n"}
	got, outcome := Rebase(rng(4, 3, 6, 8), c)
	if outcome != Shifted || got != rng(6, 3, 8, 8) {
		t.Fatalf("unexpected rebase: %v %v", got, outcome)
	}
}

func TestRebaseSameLineColumnShift(t *testing.T) {
	// "foo(bar)" -> "foo(bazzz)" style edit before the range on the same line
	c := Change{Range: rng(2, 4, 2, 7), Text: "bazzz"}
	got, outcome := Rebase(rng(2, 9, 2, 12), c)
	delta := len("bazzz") - 3
	if outcome != Shifted || got != rng(2, 9+delta, 2, 12+delta) {
		t.Fatalf("unexpected rebase: %v %v", got, outcome)
	}
}

func TestRebaseMultiLineEditIntoLaterRange(t *testing.T) {
	// join lines 1..3 and end the insertion mid-line: range on line 3 follows it
	c := Change{Range: rng(1, 5, 3, 2), Text: "q"}
	got, outcome := Rebase(rng(3, 4, 3, 9), c)
	if outcome != Shifted || got != rng(1, 8, 1, 13) {
		t.Fatalf("unexpected rebase: %v %v", got, outcome)
	}
}

func TestRebaseInsertionAtRangeStart(t *testing.T) {
	c := Change{Range: rng(0, 4, 0, 4), Text: "xx"}
	got, outcome := Rebase(rng(0, 4, 0, 8), c)
	if outcome != Shifted || got != rng(0, 4, 0, 10) {
		t.Fatalf("unexpected rebase: %v %v", got, outcome)
	}
}

func TestRebaseEndOfLineStaysAtEndOfLine(t *testing.T) {
	c := Change{Range: rng(2, 0, 2, 3), Text: ""}
	got, _ := Rebase(rng(2, 5, 2, source.EndOfLine), c)
	if got.End.Character != source.EndOfLine || got.Start != source.Pos(2, 2) {
		t.Fatalf("unexpected rebase: %v", got)
	}
}
