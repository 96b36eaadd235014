package lsp

import (
	"fmt"

	"vigil/internal/source"
)

func (s *Server) currentTrace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traceLSP
}

// documentText returns the editor buffer for uri, falling back to the file on
// disk when the document is not open.
func (s *Server) documentText(uri string) (string, error) {
	uri = source.CanonicalURI(uri)
	s.mu.Lock()
	doc, ok := s.docs[uri]
	s.mu.Unlock()
	if ok {
		return doc.text, nil
	}
	path := source.URIToPath(uri)
	if path == "" {
		return "", fmt.Errorf("unsupported document uri %q", uri)
	}
	data, err := s.readFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
