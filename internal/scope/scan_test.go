package scope

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

func assertLines(t *testing.T, label string, got, want []int) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected %s: %v, want %v", label, got, want)
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		classStarts  []int
		classEnds    []int
		methodStarts []int
		methodEnds   []int
	}{
		{
			name:        "single line class",
			src:         "class MyClass {}",
			classStarts: []int{0},
			classEnds:   []int{0},
		},
		{
			name: "class with methods",
			src: lines(
				"public with sharing class Foo {",
				"    public void bar() {",
				"        if (x) {",
				"            baz();",
				"        }",
				"    }",
				"",
				"    private Integer qux(String a,",
				"                        Integer b)",
				"    {",
				"        return 1;",
				"    }",
				"}",
			),
			classStarts:  []int{0},
			classEnds:    []int{12},
			methodStarts: []int{1, 7},
			methodEnds:   []int{5, 11},
		},
		{
			name: "nested classes keep start order",
			src: lines(
				"public class Outer {",
				"    class Inner {",
				"        void m() {}",
				"    }",
				"    void n() {",
				"    }",
				"}",
			),
			classStarts:  []int{0, 1},
			classEnds:    []int{6, 3},
			methodStarts: []int{2, 4},
			methodEnds:   []int{2, 5},
		},
		{
			name: "annotation lines are not the start",
			src: lines(
				"@IsTest",
				"@SuppressWarnings('PMD.ApexDoc')",
				"private class FooTest {",
				"    @IsTest",
				"    static void itWorks() {",
				"    }",
				"}",
			),
			classStarts:  []int{2},
			classEnds:    []int{6},
			methodStarts: []int{4},
			methodEnds:   []int{5},
		},
		{
			name: "keywords in comments and strings are ignored",
			src: lines(
				"// class Fake {",
				"/* class Other { */",
				"public class Real {",
				"    String s = 'class X { void y() {';",
				"    void m() { String t = '}'; }",
				"}",
			),
			classStarts:  []int{2},
			classEnds:    []int{5},
			methodStarts: []int{4},
			methodEnds:   []int{4},
		},
		{
			name: "case insensitive keyword",
			src: lines(
				"PUBLIC CLASS Shouty {",
				"}",
			),
			classStarts: []int{0},
			classEnds:   []int{1},
		},
		{
			name: "properties and initialisers are not methods",
			src: lines(
				"class P {",
				"    public Integer x { get; set; }",
				"    static {",
				"        init();",
				"    }",
				"    List<String> l = new List<String>{'a'};",
				"    Type t = P.class;",
				"}",
			),
			classStarts: []int{0},
			classEnds:   []int{7},
		},
		{
			name: "interfaces and enums are claimed but not reported",
			src: lines(
				"public interface Shape {",
				"    Double area();",
				"}",
				"enum Color { RED, GREEN }",
			),
		},
		{
			name: "trigger body is not a method",
			src: lines(
				"trigger AccountTrigger on Account (before insert) {",
				"    for (Account a : Trigger.new) {",
				"    }",
				"}",
			),
		},
		{
			name: "unterminated class extends to last line",
			src: lines(
				"public class Broken {",
				"    void m() {",
				"    }",
				"",
			),
			classStarts:  []int{0},
			classEnds:    []int{3},
			methodStarts: []int{1},
			methodEnds:   []int{2},
		},
		{
			name:        "stray closing brace does not panic",
			src:         "}\n} class A {}\n}",
			classStarts: []int{1},
			classEnds:   []int{1},
		},
		{
			name: "modifiers on the line before class keyword",
			src: lines(
				"global",
				"class Split {",
				"}",
			),
			classStarts: []int{0},
			classEnds:   []int{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Scan(tt.src)
			assertLines(t, "class starts", b.ClassStartLines(), tt.classStarts)
			assertLines(t, "class ends", b.ClassEndLines(), tt.classEnds)
			assertLines(t, "method starts", b.MethodStartLines(), tt.methodStarts)
			assertLines(t, "method ends", b.MethodEndLines(), tt.methodEnds)
		})
	}
}

func TestScanFreshResult(t *testing.T) {
	var s Scanner = Lexical{}
	a := s.Scan("class A {}")
	b := s.Scan("class A {}")
	a.Classes[0].Start = 42
	if b.Classes[0].Start != 0 {
		t.Fatal("scan results must not share state")
	}
}

func TestUnterminatedFlag(t *testing.T) {
	b := Scan("class A {\n  void m() {\n")
	if len(b.Classes) != 1 || b.Classes[0].Closed {
		t.Fatalf("expected one unclosed class: %+v", b.Classes)
	}
	if b.Classes[0].End != 2 {
		t.Fatalf("unexpected extended end: %d", b.Classes[0].End)
	}
	if len(b.Methods) != 1 || b.Methods[0].Closed || b.Methods[0].End != 2 {
		t.Fatalf("unexpected methods: %+v", b.Methods)
	}
}

func TestClassAt(t *testing.T) {
	src := lines(
		"public class Outer {",
		"    class Inner {",
		"        void m() {}",
		"    }",
		"    void n() {",
		"    }",
		"}",
	)
	b := Scan(src)
	blk, ok := b.ClassAt(2)
	if !ok || blk.Start != 1 || blk.End != 3 {
		t.Fatalf("unexpected innermost class: %+v", blk)
	}
	blk, ok = b.OutermostClassAt(2)
	if !ok || blk.Start != 0 || blk.End != 6 {
		t.Fatalf("unexpected outermost class: %+v", blk)
	}
	blk, ok = b.ClassAt(5)
	if !ok || blk.Start != 0 {
		t.Fatalf("unexpected class for line 5: %+v", blk)
	}
	m, ok := b.MethodAt(5)
	if !ok || m.Start != 4 || m.End != 5 {
		t.Fatalf("unexpected method: %+v", m)
	}
	if _, ok := b.MethodAt(0); ok {
		t.Fatal("line 0 is not inside a method")
	}
	if r := blk.Range(); r.Start.Line != 0 || r.End.Line != 6 {
		t.Fatalf("unexpected range: %v", r)
	}
}

func TestMatchParens(t *testing.T) {
	tests := []struct {
		src  string
		want []int
	}{
		{"f(a(b))", []int{-1, 6, -1, 5, -1, -1, -1}},
		{"f((;)", []int{-1, -1, -1, -1, -1}},
		{"g(x{)", []int{-1, -1, -1, -1, -1}},
		{") (", []int{-1, -1}},
	}
	for _, tt := range tests {
		if got := matchParens(tokenize(tt.src)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("matchParens(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestScanManyOpenParens(t *testing.T) {
	src := "class A {\n" + strings.Repeat("f(", 40000)
	start := time.Now()
	b := Scan(src)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("scan took %s", elapsed)
	}
	if len(b.Classes) != 1 || b.Classes[0].Closed || b.Classes[0].End != 1 || len(b.Methods) != 0 {
		t.Fatalf("unexpected boundaries: %+v", b)
	}
}
