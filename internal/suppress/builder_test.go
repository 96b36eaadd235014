package suppress

import (
	"errors"
	"strings"
	"testing"

	"vigil/internal/diag"
	"vigil/internal/source"
	"vigil/internal/store"
	"vigil/internal/violation"
)

const uri = "file:///a.cls"

var ruleA = store.RuleFilter{Engine: "pmd", Rule: "RuleA"}

func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

func mustApply(t *testing.T, text string, s *Suppression) string {
	t.Helper()
	out, err := Apply(text, s.Edits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestForClassAddsAnnotation(t *testing.T) {
	text := lines(
		"// header",
		"    public class Foo {",
		"        void run() {",
		"        }",
		"    }",
	)
	s, err := ForClass(uri, text, 2, ruleA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := lines(
		"// header",
		"    @SuppressWarnings('PMD.RuleA')",
		"    public class Foo {",
		"        void run() {",
		"        }",
		"    }",
	)
	if got := mustApply(t, text, s); got != want {
		t.Fatalf("unexpected result:\n%s", got)
	}
	if len(s.Clears) != 1 || s.Clears[0].Range != source.Lines(2, 5) || s.Clears[0].Filter != ruleA {
		t.Fatalf("unexpected clears: %+v", s.Clears)
	}
	if s.Title != "Suppress PMD.RuleA in this class" {
		t.Fatalf("unexpected title: %q", s.Title)
	}
}

func TestForClassMergesExistingAnnotation(t *testing.T) {
	text := lines(
		"@IsTest",
		"@SuppressWarnings('PMD.Other')",
		"private class FooTest {",
		"}",
	)
	s, err := ForClass(uri, text, 3, ruleA, store.RuleFilter{Engine: "eslint", Rule: "no-var"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := lines(
		"@IsTest",
		"@SuppressWarnings('PMD.Other, PMD.RuleA, eslint.no-var')",
		"private class FooTest {",
		"}",
	)
	if got := mustApply(t, text, s); got != want {
		t.Fatalf("unexpected result:\n%s", got)
	}
	if len(s.Clears) != 2 {
		t.Fatalf("expected a clear per rule, got %+v", s.Clears)
	}
}

func TestForClassSameLineAnnotation(t *testing.T) {
	text := "@SuppressWarnings('') public class Foo { }"
	s, err := ForClass(uri, text, 0, ruleA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustApply(t, text, s); got != "@SuppressWarnings('PMD.RuleA') public class Foo { }" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestForClassAlreadySuppressed(t *testing.T) {
	text := lines("@suppresswarnings('pmd.rulea')", "class Foo {", "}")
	if _, err := ForClass(uri, text, 1, ruleA); !errors.Is(err, ErrAlreadySuppressed) {
		t.Fatalf("expected ErrAlreadySuppressed, got %v", err)
	}
}

func TestForClassIgnoresCommentedAnnotation(t *testing.T) {
	text := lines("// @SuppressWarnings('PMD.RuleA')", "class Foo {", "}")
	s, err := ForClass(uri, text, 1, ruleA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Edits[0].Range.Start != source.Pos(1, 0) {
		t.Fatalf("expected a new annotation, got %+v", s.Edits)
	}
}

func TestForClassInnermost(t *testing.T) {
	text := lines(
		"public class Outer {",
		"    class Inner {",
		"        void f() {}",
		"    }",
		"}",
	)
	s, err := ForClass(uri, text, 2, ruleA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Edits[0].NewText; got != "    @SuppressWarnings('PMD.RuleA')\n" {
		t.Fatalf("unexpected insertion: %q", got)
	}
	if s.Clears[0].Range != source.Lines(2, 4) {
		t.Fatalf("unexpected clear range: %v", s.Clears[0].Range)
	}
}

func TestForClassCRLF(t *testing.T) {
	text := "class Foo {\r\n}\r\n"
	s, err := ForClass(uri, text, 0, ruleA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustApply(t, text, s); got != "@SuppressWarnings('PMD.RuleA')\r\nclass Foo {\r\n}\r\n" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestForClassErrors(t *testing.T) {
	if _, err := ForClass(uri, "class Foo {}", 0); !errors.Is(err, ErrNoRules) {
		t.Fatalf("expected ErrNoRules, got %v", err)
	}
	if _, err := ForClass(uri, "trigger T on Account (before insert) {\n}\n", 1, ruleA); !errors.Is(err, ErrNoClass) {
		t.Fatalf("expected ErrNoClass, got %v", err)
	}
}

func TestForLine(t *testing.T) {
	text := lines("class Foo {", "    Integer x = 1;", "}")
	s, err := ForLine(uri, text, 1, ruleA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustApply(t, text, s); got != lines("class Foo {", "    Integer x = 1; // NOPMD", "}") {
		t.Fatalf("unexpected result:\n%s", got)
	}
	if s.Clears[0].Range != source.Lines(1, 1) {
		t.Fatalf("unexpected clear range: %v", s.Clears[0].Range)
	}

	eslint, err := ForLine(uri, "var a = 1;", 0,
		store.RuleFilter{Engine: "eslint", Rule: "no-var"},
		store.RuleFilter{Engine: "eslint", Rule: "semi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := eslint.Edits[0].NewText; got != " // eslint-disable-line no-var, semi" {
		t.Fatalf("unexpected marker: %q", got)
	}
}

func TestForLineErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		line  int
		rules []store.RuleFilter
		want  error
	}{
		{"already", "x = 1; // NOPMD", 0, []store.RuleFilter{ruleA}, ErrAlreadySuppressed},
		{"out of range", "x", 3, []store.RuleFilter{ruleA}, ErrLineOutOfRange},
		{"unknown engine", "x", 0, []store.RuleFilter{{Engine: "regex", Rule: "R"}}, ErrUnsupportedEngine},
		{"mixed engines", "x", 0, []store.RuleFilter{ruleA, {Engine: "eslint", Rule: "semi"}}, ErrUnsupportedEngine},
		{"no rules", "x", 0, nil, ErrNoRules},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ForLine(uri, tt.text, tt.line, tt.rules...); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClearFromStore(t *testing.T) {
	text := lines(
		"public class Foo {",
		"    void a() {}",
		"}",
		"public class Bar {",
		"}",
	)
	st := store.New(store.Options{Factory: diag.NewFactory(diag.Levels{1: "error"}, diag.FactoryOptions{})})
	at := func(rule string, line int) *violation.Violation {
		return &violation.Violation{
			Engine: "pmd", Rule: rule, Severity: 1,
			Locations: []violation.CodeLocation{{File: violation.Ref("/a.cls"), StartLine: violation.Ref(line)}},
		}
	}
	if _, err := st.AddViolations([]*violation.Violation{at("RuleA", 2), at("RuleB", 2), at("RuleA", 4)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err := ForClass(uri, text, 1, ruleA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.HandleChange(s.Change())
	if n := s.ClearFrom(st); n != 1 {
		t.Fatalf("expected one cleared diagnostic, got %d", n)
	}
	if st.Len() != 2 {
		t.Fatalf("unexpected remaining count: %d", st.Len())
	}
}

func TestForClassClearsAfterEditRebase(t *testing.T) {
	text := lines(
		"public class Foo {",
		"    void a() {",
		"    }",
		"}",
		"",
	)
	st := store.New(store.Options{Factory: diag.NewFactory(diag.Levels{1: "error"}, diag.FactoryOptions{})})
	at := func(rule string, line int) *violation.Violation {
		return &violation.Violation{
			Engine: "pmd", Rule: rule, Severity: 1,
			Locations: []violation.CodeLocation{{File: violation.Ref("/a.cls"), StartLine: violation.Ref(line)}},
		}
	}
	// first and last line of the class
	if _, err := st.AddViolations([]*violation.Violation{at("RuleA", 1), at("RuleA", 4), at("RuleB", 4)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err := ForClass(uri, text, 3, ruleA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.HandleChange(s.Change()) {
		t.Fatal("expected the annotation insert to move diagnostics")
	}
	if n := s.ClearFrom(st); n != 2 {
		t.Fatalf("expected both RuleA diagnostics cleared, got %d", n)
	}
	left := st.ForFile(uri)
	if len(left) != 1 || left[0].Code.Value != "RuleB" || left[0].Range.Start.Line != 4 {
		t.Fatalf("unexpected remaining diagnostics: %+v", left)
	}
}

func TestChangeOrdersEditsBackToFront(t *testing.T) {
	s := &Suppression{URI: uri, Edits: []TextEdit{
		{Range: source.NewRange(0, 0, 0, 0), NewText: "a"},
		{Range: source.NewRange(3, 2, 3, 4), NewText: "b"},
	}}
	ev := s.Change()
	if ev.URI != uri || len(ev.Changes) != 2 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Changes[0].Range.Start.Line != 3 || ev.Changes[1].Text != "a" {
		t.Fatalf("unexpected order: %+v", ev.Changes)
	}
}
