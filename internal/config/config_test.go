package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vigil/internal/diag"
	"vigil/internal/trace"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "force-app", "main", "classes")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("unexpected result: %v %v", ok, err)
	}
	if got != want {
		t.Fatalf("found %q, want %q", got, want)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if !errors.Is(err, ErrNoConfig) {
		t.Fatalf("expected ErrNoConfig, got %v", err)
	}
	if cfg.Levels()[1] != "error" || cfg.Diagnostics.Product != diag.DefaultProduct {
		t.Fatalf("defaults not returned: %+v", cfg)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[severity]
"2" = "warning"
"5" = "none"

[diagnostics]
product = "Acme Scanner"
widen_rules = ["pmd:AvoidDebugStatements"]

[scan]
extensions = [".cls"]
jobs = 3

[trace]
level = "document"
output = "trace.ndjson"

[cache]
enabled = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	levels := cfg.Levels()
	if levels[1] != "error" || levels[2] != "warning" || levels[5] != "none" {
		t.Fatalf("unexpected levels: %v", levels)
	}
	if levels.Resolve(5) != diag.SevNone {
		t.Fatalf("level 5 should be suppressed")
	}
	opts := cfg.FactoryOptions()
	if opts.Product != "Acme Scanner" || len(opts.WidenRules) != 1 {
		t.Fatalf("unexpected factory options: %+v", opts)
	}
	if cfg.Cache.Enabled {
		t.Fatal("cache should be disabled")
	}
	if !cfg.HasExtension("Foo.CLS") || cfg.HasExtension("Foo.trigger") || cfg.Scan.Jobs != 3 {
		t.Fatalf("unexpected scan settings: %+v", cfg.Scan)
	}
	tc, err := cfg.TraceConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tc.Level != trace.LevelDocument || tc.Mode != trace.ModeStream || tc.OutputPath != "trace.ndjson" {
		t.Fatalf("unexpected trace config: %+v", tc)
	}
	if cfg.Path != path {
		t.Fatalf("unexpected path: %q", cfg.Path)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad toml", "[severity", "failed to parse TOML"},
		{"bad level key", "[severity]\n\"7\" = \"error\"\n", "not a level"},
		{"bad trace level", "[trace]\nlevel = \"loud\"\n", "[trace].level"},
		{"unknown key", "[diagnostics]\nproduct = \"x\"\ncolour = true\n", "unknown keys: diagnostics.colour"},
		{"empty product", "[diagnostics]\nproduct = \" \"\n", "must not be empty"},
		{"negative jobs", "[scan]\njobs = -1\n", "jobs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestUnknownSeverityNameIsWarning(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[severity]\n\"1\" = \"critical\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.Factory(); got == nil {
		t.Fatal("expected a factory")
	}
	if cfg.Levels().Resolve(1) != diag.SevWarning {
		t.Fatalf("unknown severity name should resolve to warning")
	}
}

func TestErrorLevelUsesRing(t *testing.T) {
	cfg := Default()
	cfg.Trace.Level = "error"
	tc, err := cfg.TraceConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tc.Mode != trace.ModeRing {
		t.Fatalf("unexpected mode: %v", tc.Mode)
	}
}
