// Package diagfmt renders diagnostics for terminals, scripts and code
// scanning dashboards.
package diagfmt

import (
	"path/filepath"
	"strings"

	"vigil/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths under BaseDir relative to it and others absolute.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode reads a --path-mode flag value.
func ParsePathMode(s string) (PathMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PathModeAuto, true
	case "absolute", "abs":
		return PathModeAbsolute, true
	case "relative", "rel":
		return PathModeRelative, true
	case "basename", "base":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// Width caps the rendered source line in display cells; 0 means no limit.
	Width       int
	ShowRelated bool
	ShowFixes   bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode       PathMode
	BaseDir        string
	Max            int // 0 means all
	IncludeRelated bool
	IncludeFixes   bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}

// TextSource returns the current text of a document, if it is available.
type TextSource func(uri string) (string, bool)

func formatPath(uri string, mode PathMode, base string) string {
	path := source.URIToPath(uri)
	if path == "" {
		return uri
	}
	switch mode {
	case PathModeAbsolute:
		return path
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative, PathModeAuto:
		if base == "" {
			return path
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return path
		}
		if mode == PathModeAuto && strings.HasPrefix(rel, "..") {
			return path
		}
		return filepath.ToSlash(rel)
	}
	return path
}
