package source

import (
	"reflect"
	"testing"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"abc", []string{"abc"}},
		{"a\nb", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b", ""}},
		{"a\rb", []string{"a", "b"}},
		{"\n\n", []string{"", "", ""}},
	}
	for _, tt := range tests {
		if got := SplitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUTF16Len(t *testing.T) {
	if got := UTF16Len("abc"); got != 3 {
		t.Fatalf("unexpected ascii length: %d", got)
	}
	if got := UTF16Len("é"); got != 1 {
		t.Fatalf("unexpected BMP length: %d", got)
	}
	if got := UTF16Len("🙂x"); got != 3 {
		t.Fatalf("unexpected astral length: %d", got)
	}
}

func TestEndOf(t *testing.T) {
	start := Pos(4, 7)
	tests := []struct {
		text string
		want Position
	}{
		{"", Pos(4, 7)},
		{"abc", Pos(4, 10)},
		{"a\nbc", Pos(5, 2)},
		{"x\r\ny\r\n", Pos(6, 0)},
		{"🙂", Pos(4, 9)},
	}
	for _, tt := range tests {
		if got := EndOf(start, tt.text); got != tt.want {
			t.Errorf("EndOf(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSafeUint32(t *testing.T) {
	if SafeUint32(-1) != 0 {
		t.Fatal("negative should floor at zero")
	}
	if SafeUint32(EndOfLine) != uint32(EndOfLine) {
		t.Fatal("end of line sentinel should survive")
	}
}
