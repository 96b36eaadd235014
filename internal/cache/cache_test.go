package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"vigil/internal/scope"
	"vigil/internal/violation"
)

func TestBoundariesRoundTrip(t *testing.T) {
	c, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := "public class A {\n    void f() {\n    }\n}\n"
	key := Sum([]byte(text))
	want := scope.Scan(text)

	if _, ok, err := c.GetBoundaries(key); ok || err != nil {
		t.Fatalf("expected a miss, got %v %v", ok, err)
	}
	if err := c.PutBoundaries(key, "A.cls", want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok, err := c.GetBoundaries(key)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got %v %v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected boundaries: %+v, want %+v", got, want)
	}
}

func TestViolationsRoundTrip(t *testing.T) {
	c, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vs := []*violation.Violation{{
		Rule: "RuleA", Engine: "pmd", Message: "m", Severity: 2,
		Locations: []violation.CodeLocation{{File: violation.Ref("/a.cls"), StartLine: violation.Ref(3)}},
		Resources: []string{"https://example.com/RuleA"},
	}}
	key := Sum([]byte("results"))
	if err := c.PutViolations(key, "results.json", vs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok, err := c.GetViolations(key)
	if err != nil || !ok || len(got) != 1 {
		t.Fatalf("unexpected result: %v %v %v", got, ok, err)
	}
	loc := got[0].Locations[0]
	if got[0].Rule != "RuleA" || *loc.StartLine != 3 || loc.StartColumn != nil || loc.FileName() != "/a.cls" {
		t.Fatalf("unexpected violation: %+v", got[0])
	}
}

func TestCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key := Sum([]byte("x"))
	p := filepath.Join(dir, "scope", key.String()+".mp")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte{0xc1}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok, err := c.GetBoundaries(key); ok || err == nil {
		t.Fatalf("expected an error for a corrupt entry, got %v %v", ok, err)
	}
}

func TestDropAll(t *testing.T) {
	c, err := OpenDir(filepath.Join(t.TempDir(), "vigil"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key := Sum([]byte("text"))
	if err := c.PutBoundaries(key, "a", scope.Boundaries{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := c.GetBoundaries(key); ok {
		t.Fatal("entry survived DropAll")
	}
	if err := c.PutBoundaries(key, "a", scope.Boundaries{}); err != nil {
		t.Fatalf("cache unusable after DropAll: %v", err)
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if err := c.PutBoundaries(Digest{}, "a", scope.Boundaries{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, err := c.GetViolations(Digest{}); ok || err != nil {
		t.Fatalf("nil cache should miss quietly: %v %v", ok, err)
	}
}
