package testkit

import (
	"strings"
	"testing"

	"vigil/internal/scope"
)

func TestCheckBoundariesAcceptsScan(t *testing.T) {
	text := "public class Outer {\n    class Inner {\n        void f() {}\n    }\n    void g() {\n"
	if err := CheckBoundaries(text, scope.Scan(text)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckBoundariesRejects(t *testing.T) {
	text := "a\nb\nc\nd\n"
	tests := []struct {
		name string
		b    scope.Boundaries
		want string
	}{
		{"past end", scope.Boundaries{Classes: []scope.Block{{Start: 0, End: 9, Closed: true}}}, "bad span"},
		{"inverted", scope.Boundaries{Methods: []scope.Block{{Start: 2, End: 1, Closed: true}}}, "bad span"},
		{"short unterminated", scope.Boundaries{Classes: []scope.Block{{Start: 0, End: 2}}}, "unterminated"},
		{"crossing", scope.Boundaries{Classes: []scope.Block{
			{Start: 0, End: 2, Closed: true},
			{Start: 1, End: 3, Closed: true},
		}}, "overlap"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckBoundaries(text, tt.b)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCheckBlank(t *testing.T) {
	text := "x = 'a'; // c\ny"
	if err := CheckBlank(text, scope.Blank(text)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckBlank("ab\nc", "ab"); err == nil {
		t.Fatal("expected line count error")
	}
	if err := CheckBlank("ab", "a"); err == nil {
		t.Fatal("expected width error")
	}
}
