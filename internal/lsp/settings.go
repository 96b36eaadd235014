package lsp

import (
	"encoding/json"
	"strconv"

	"vigil/internal/diag"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didChangeConfiguration: %v", err)
		return nil
	}
	s.publish(s.applySettings(params.Settings)...)
	return nil
}

// applySettings reads {"vigil": {...}} and returns the files whose
// diagnostics changed. Severity keys merge over the configured levels, so a
// key dropped from the settings reverts to its configured value.
func (s *Server) applySettings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logf("invalid settings: %v", err)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.Vigil.LSP.Trace != nil {
		s.traceLSP = *settings.Vigil.LSP.Trace
	}
	if settings.Vigil.Severity == nil {
		return nil
	}
	levels := make(diag.Levels, len(s.levels)+len(settings.Vigil.Severity))
	for level, name := range s.levels {
		levels[level] = name
	}
	for key, name := range settings.Vigil.Severity {
		level, err := strconv.Atoi(key)
		if err != nil || level < 1 || level > 5 {
			s.logf("ignoring severity setting %q: not a level 1..5", key)
			continue
		}
		levels[level] = name
	}
	s.store.Factory().SetLevels(levels)
	return s.store.Refresh()
}
