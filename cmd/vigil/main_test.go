package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vigil/internal/diagfmt"
)

const classText = "public class Foo {\n    void run() {\n        Integer x = 1;\n    }\n}\n"

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// project writes Foo.cls and a config with the cache off, and returns the
// directory and the --config flag pair.
func project(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Foo.cls"), []byte(classText), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	cfg := filepath.Join(dir, "vigil.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\nenabled = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir, []string{"--config", cfg, "--color", "off"}
}

func TestBlankFromStdin(t *testing.T) {
	out, _, err := execute(t, "x = 1; // {\ny", "blank")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "x = 1;     \ny" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestScanJSON(t *testing.T) {
	dir, flags := project(t)
	out, _, err := execute(t, "", append(flags, "scan", "--json", "--ui", "off", dir)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var files []scanFileJSON
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0].Path, "Foo.cls") {
		t.Fatalf("unexpected files: %+v", files)
	}
	f := files[0]
	if len(f.ClassStartLines) != 1 || f.ClassStartLines[0] != 0 || f.ClassEndLines[0] != 4 {
		t.Fatalf("unexpected classes: %+v", f)
	}
	if len(f.MethodStartLines) != 1 || f.MethodStartLines[0] != 1 || f.MethodEndLines[0] != 3 {
		t.Fatalf("unexpected methods: %+v", f)
	}
}

func TestScanPretty(t *testing.T) {
	dir, flags := project(t)
	out, _, err := execute(t, "", append(flags, "scan", "--ui", "off", filepath.Join(dir, "Foo.cls"))...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "1 classes, 1 methods") || !strings.Contains(out, "method 1-3") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func writeResults(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.ToSlash(filepath.Join(dir, "Foo.cls"))
	body := `{"violations": [{"rule": "UnusedLocalVariable", "engine": "pmd", "message": "x is unused",
		"severity": 1, "locations": [{"file": "` + src + `", "startLine": 3, "startColumn": 17, "endLine": 3, "endColumn": 18}],
		"primaryLocationIndex": 0}]}`
	path := filepath.Join(dir, "results.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write results: %v", err)
	}
	return path
}

func TestDiagFormats(t *testing.T) {
	dir, flags := project(t)
	results := writeResults(t, dir)

	out, _, err := execute(t, "", append(flags, "diag", "--format", "json", "--path-mode", "basename", results)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload diagfmt.DiagnosticsOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, out)
	}
	if payload.Count != 1 {
		t.Fatalf("unexpected count: %d", payload.Count)
	}
	d := payload.Diagnostics[0]
	if d.Code != "UnusedLocalVariable" || d.Severity != "ERROR" || d.Location.File != "Foo.cls" || d.Location.StartLine != 3 {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}

	out, _, err = execute(t, "", append(flags, "diag", "--path-mode", "basename", results)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "Foo.cls:3:17: ERROR UnusedLocalVariable: x is unused") || !strings.Contains(out, "^") {
		t.Fatalf("unexpected pretty output:\n%s", out)
	}

	out, _, err = execute(t, "", append(flags, "diag", "--format", "sarif", results)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"version": "2.1.0"`) || !strings.Contains(out, "pmd:UnusedLocalVariable") {
		t.Fatalf("unexpected sarif output:\n%s", out)
	}

	if _, _, err := execute(t, "", append(flags, "diag", "--fail-on", "error", results)...); err == nil {
		t.Fatal("expected --fail-on error to fail")
	}
	if _, _, err := execute(t, "", append(flags, "diag", "--format", "xml", results)...); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestSuppressPreviewAndWrite(t *testing.T) {
	dir, flags := project(t)
	path := filepath.Join(dir, "Foo.cls")
	results := writeResults(t, dir)

	out, _, err := execute(t, "", append(flags, "suppress", path, "--rule", "pmd:UnusedLocalVariable",
		"--line", "3", "--scope", "line", "--results", results)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "   3 +         Integer x = 1; // NOPMD") || !strings.Contains(out, "clears 1 diagnostics") {
		t.Fatalf("unexpected preview:\n%s", out)
	}
	content, _ := os.ReadFile(path)
	if string(content) != classText {
		t.Fatal("preview must not touch the file")
	}

	if _, _, err := execute(t, "", append(flags, "suppress", path, "--rule", "pmd:UnusedLocalVariable",
		"--line", "3", "--write")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, _ = os.ReadFile(path)
	if !strings.HasPrefix(string(content), "@SuppressWarnings('PMD.UnusedLocalVariable')\npublic class Foo {") {
		t.Fatalf("unexpected file:\n%s", content)
	}

	out, _, err = execute(t, "", append(flags, "suppress", path, "--rule", "pmd:UnusedLocalVariable", "--line", "4")...)
	if err != nil || !strings.Contains(out, "nothing to do") {
		t.Fatalf("expected already suppressed, got %q %v", out, err)
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "", "version", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Tool != "vigil" || payload.Version == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestReadToggle(t *testing.T) {
	tests := []struct {
		in   string
		want toggle
		ok   bool
	}{
		{"", toggleAuto, true},
		{"ON", toggleOn, true},
		{"never", toggleOff, true},
		{"sometimes", "", false},
	}
	for _, tt := range tests {
		got, err := readToggle("ui", tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("readToggle(%q) = %q, %v", tt.in, got, err)
		}
	}
	if _, _, err := execute(t, "", "--color", "purple", "version"); err == nil {
		t.Fatal("expected invalid --color to fail")
	}
}

func TestScanTimings(t *testing.T) {
	dir, flags := project(t)
	_, errOut, err := execute(t, "", append(flags, "scan", "--ui", "off", "--timings", dir)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut, "timings:") || !strings.Contains(errOut, "1 files") {
		t.Fatalf("unexpected stderr:\n%s", errOut)
	}
}
