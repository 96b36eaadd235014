package scope

import (
	"strings"
	"testing"

	"vigil/internal/source"
)

func TestBlank(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "line comment",
			in:   "// hello\ncode",
			want: "        \ncode",
		},
		{
			name: "trailing line comment keeps code",
			in:   "x = 1; // {\ny",
			want: "x = 1;     \ny",
		},
		{
			name: "block comment across lines keeps crlf",
			in:   "a /* {\r\n } */ b",
			want: "a     \r\n      b",
		},
		{
			name: "string masks comment markers",
			in:   "s = '// not a comment'; t",
			want: "s =                   ; t",
		},
		{
			name: "comment masks quotes",
			in:   "/* it's */ x = 'y';",
			want: "           x =    ;",
		},
		{
			name: "escaped quote stays inside literal",
			in:   `s = 'it\'s {';`,
			want: "s =          ;",
		},
		{
			name: "braces in strings are blanked",
			in:   "String s = '{';\n}",
			want: "String s =    ;\n}",
		},
		{
			name: "unterminated block comment runs to end",
			in:   "a /* b\nc",
			want: "a     \n ",
		},
		{
			name: "astral character keeps utf16 width",
			in:   "'🙂' x",
			want: "     x",
		},
		{
			name: "division is code",
			in:   "a = b / c;",
			want: "a = b / c;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Blank(tt.in)
			if got != tt.want {
				t.Fatalf("Blank(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if source.LineCount(got) != source.LineCount(tt.in) {
				t.Fatalf("line count changed: %d vs %d", source.LineCount(got), source.LineCount(tt.in))
			}
		})
	}
}

func TestBlankPreservesColumns(t *testing.T) {
	in := strings.Join([]string{
		"public class Foo { // trailing",
		"  /* block",
		"     still block */ void bar() {",
		"    String s = 'x /* y';",
		"  }",
		"}",
	}, "\n")
	inLines := source.SplitLines(in)
	outLines := source.SplitLines(Blank(in))
	if len(inLines) != len(outLines) {
		t.Fatalf("unexpected line count: %d", len(outLines))
	}
	for i := range inLines {
		if source.UTF16Len(inLines[i]) != source.UTF16Len(outLines[i]) {
			t.Fatalf("line %d width changed: %q -> %q", i, inLines[i], outLines[i])
		}
	}
	if !strings.Contains(outLines[2], "void bar() {") {
		t.Fatalf("code after block comment lost: %q", outLines[2])
	}
}
