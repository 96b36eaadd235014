package source

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FileURI turns a file path into a file:// URI. Values that already carry a
// scheme are returned unchanged.
func FileURI(path string) string {
	if path == "" {
		return ""
	}
	if strings.Contains(path, "://") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// URIToPath turns a file:// URI back into a local path. Other schemes yield "".
func URIToPath(uri string) string {
	if uri == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return ""
	}
	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return filepath.FromSlash(path)
}

// CanonicalURI normalises an editor-supplied URI so it can key a map.
func CanonicalURI(uri string) string {
	if uri == "" {
		return ""
	}
	if !strings.Contains(uri, "://") {
		return FileURI(uri)
	}
	path := URIToPath(uri)
	if path == "" {
		return uri
	}
	return FileURI(path)
}
