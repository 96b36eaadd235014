package lsp

import (
	"sort"

	"vigil/internal/store"
)

// mutate runs fn against the store and returns every file whose diagnostics
// may have changed.
func (s *Server) mutate(fn func(st *store.Store)) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.store.Files()
	fn(s.store)
	return union(before, s.store.Files())
}

// publish sends the current diagnostics of each uri. Files that never had a
// published diagnostic and still have none are skipped.
func (s *Server) publish(uris ...string) {
	for _, uri := range uris {
		s.mu.Lock()
		list := toDiagnostics(s.store.ForFile(uri))
		_, was := s.published[uri]
		if len(list) == 0 {
			delete(s.published, uri)
		} else {
			s.published[uri] = struct{}{}
		}
		s.mu.Unlock()
		if len(list) == 0 && !was {
			continue
		}
		if err := s.sendPublish(uri, list); err != nil {
			s.logf("failed to publish diagnostics for %s: %v", uri, err)
		}
	}
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	sort.Strings(uris)
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, uri := range list {
			if _, ok := seen[uri]; ok {
				continue
			}
			seen[uri] = struct{}{}
			out = append(out, uri)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.notify("textDocument/publishDiagnostics", publishDiagnosticsParams{URI: uri, Diagnostics: list})
}
