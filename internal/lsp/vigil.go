package lsp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vigil/internal/scope"
	"vigil/internal/source"
	"vigil/internal/store"
	"vigil/internal/suppress"
)

const (
	methodAddViolations    = "vigil/addViolations"
	methodClearDiagnostics = "vigil/clearDiagnostics"
	methodBoundaries       = "vigil/boundaries"
	methodSuppress         = "vigil/suppress"

	commandClearDiagnostics = "vigil.clearDiagnostics"
)

// handleAddViolations accepts engine results. Sent as a request it answers
// with the IDs assigned; as a notification it only republishes.
func (s *Server) handleAddViolations(msg *rpcMessage) error {
	var params addViolationsParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.paramsError(msg, err)
	}
	var (
		ids    []uint64
		addErr error
	)
	changed := s.mutate(func(st *store.Store) {
		ids, addErr = st.AddViolations(params.Violations)
	})
	if addErr != nil {
		s.logf("addViolations: %v", addErr)
	}
	s.publish(changed...)
	if len(msg.ID) > 0 {
		if ids == nil {
			ids = []uint64{}
		}
		return s.sendResponse(msg.ID, ids)
	}
	return nil
}

// handleClearDiagnostics clears one file, optionally narrowed by range and
// rule, or everything when no uri is given.
func (s *Server) handleClearDiagnostics(msg *rpcMessage) error {
	var params clearDiagnosticsParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.paramsError(msg, err)
		}
	}
	s.publish(s.mutate(func(st *store.Store) { clearStore(st, params) })...)
	if len(msg.ID) > 0 {
		return s.sendResponse(msg.ID, nil)
	}
	return nil
}

func clearStore(st *store.Store, params clearDiagnosticsParams) {
	if params.URI == "" {
		st.ClearAll()
		return
	}
	var opts store.ClearOptions
	if params.Range != nil {
		r := fromRange(*params.Range)
		opts.Range = &r
	}
	opts.Filter = params.Filter
	st.ClearFromFile(params.URI, opts)
}

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.paramsError(msg, err)
	}
	if params.Command != commandClearDiagnostics {
		return s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("unknown command %q", params.Command))
	}
	clears := make([]clearDiagnosticsParams, 0, len(params.Arguments))
	for _, arg := range params.Arguments {
		var c clearDiagnosticsParams
		if err := json.Unmarshal(arg, &c); err != nil {
			return s.paramsError(msg, err)
		}
		clears = append(clears, c)
	}
	s.publish(s.mutate(func(st *store.Store) {
		for _, c := range clears {
			clearStore(st, c)
		}
	})...)
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleBoundaries(msg *rpcMessage) error {
	var params boundariesParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.paramsError(msg, err)
	}
	text, err := s.documentText(params.TextDocument.URI)
	if err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	b := scope.Scan(text)
	return s.sendResponse(msg.ID, boundariesResult{
		ClassStartLines:  nonNil(b.ClassStartLines()),
		ClassEndLines:    nonNil(b.ClassEndLines()),
		MethodStartLines: nonNil(b.MethodStartLines()),
		MethodEndLines:   nonNil(b.MethodEndLines()),
	})
}

func (s *Server) handleSuppress(msg *rpcMessage) error {
	var params suppressParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.paramsError(msg, err)
	}
	rules := make([]store.RuleFilter, 0, len(params.Rules))
	for _, r := range params.Rules {
		rules = append(rules, store.ParseRuleFilter(r))
	}
	text, err := s.documentText(params.TextDocument.URI)
	if err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	line := int(params.Line)

	var sup *suppress.Suppression
	switch strings.ToLower(params.Scope) {
	case "", "class":
		sup, err = suppress.ForClass(uri, text, line, rules...)
	case "line":
		sup, err = suppress.ForLine(uri, text, line, rules...)
	default:
		return s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("unknown scope %q", params.Scope))
	}
	if err != nil {
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	}
	return s.sendResponse(msg.ID, toSuppressResult(sup))
}

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.paramsError(msg, err)
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	s.mu.Lock()
	found := s.store.Find(uri, fromRange(params.Range))
	s.mu.Unlock()
	actions := []codeAction{}
	if len(found) == 0 {
		return s.sendResponse(msg.ID, actions)
	}
	text, err := s.documentText(uri)
	if err != nil {
		s.logf("codeAction: %v", err)
		return s.sendResponse(msg.ID, actions)
	}

	seen := make(map[string]struct{})
	for _, d := range found {
		engine, rule := d.Rule()
		filter := store.RuleFilter{Engine: engine, Rule: rule}
		line := d.Range.Start.Line
		for _, build := range []func(string, string, int, ...store.RuleFilter) (*suppress.Suppression, error){
			suppress.ForLine,
			suppress.ForClass,
		} {
			sup, err := build(uri, text, line, filter)
			if err != nil {
				if !expectedSuppressError(err) {
					s.logf("codeAction: %v", err)
				}
				continue
			}
			if _, dup := seen[sup.Title]; dup {
				continue
			}
			seen[sup.Title] = struct{}{}
			actions = append(actions, toCodeAction(sup, toDiagnostic(d)))
		}
	}
	return s.sendResponse(msg.ID, actions)
}

func expectedSuppressError(err error) bool {
	return errors.Is(err, suppress.ErrNoClass) ||
		errors.Is(err, suppress.ErrUnsupportedEngine) ||
		errors.Is(err, suppress.ErrAlreadySuppressed)
}

func (s *Server) handleFoldingRange(msg *rpcMessage) error {
	var params foldingRangeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.paramsError(msg, err)
	}
	text, err := s.documentText(params.TextDocument.URI)
	if err != nil {
		return s.sendResponse(msg.ID, []foldingRange{})
	}
	return s.sendResponse(msg.ID, buildFoldingRanges(scope.Scan(text)))
}

func (s *Server) paramsError(msg *rpcMessage, err error) error {
	if len(msg.ID) == 0 {
		s.logf("%s: %v", msg.Method, err)
		return nil
	}
	return s.sendError(msg.ID, codeInvalidParams, "invalid params")
}

func toSuppressResult(sup *suppress.Suppression) suppressResult {
	edits := make([]textEdit, 0, len(sup.Edits))
	for _, e := range sup.Edits {
		edits = append(edits, textEdit{Range: toRange(e.Range), NewText: e.NewText})
	}
	clears := make([]clearDiagnosticsParams, 0, len(sup.Clears))
	for _, c := range sup.Clears {
		r, f := toRange(c.Range), c.Filter
		clears = append(clears, clearDiagnosticsParams{URI: c.URI, Range: &r, Filter: &f})
	}
	return suppressResult{
		Title:  sup.Title,
		Edit:   workspaceEdit{Changes: map[string][]textEdit{sup.URI: edits}},
		Clears: clears,
	}
}

func toCodeAction(sup *suppress.Suppression, d lspDiagnostic) codeAction {
	res := toSuppressResult(sup)
	args := make([]any, len(res.Clears))
	for i, c := range res.Clears {
		args[i] = c
	}
	return codeAction{
		Title:       res.Title,
		Kind:        "quickfix",
		Diagnostics: []lspDiagnostic{d},
		Edit:        &res.Edit,
		Command: &command{
			Title:     "Clear suppressed diagnostics",
			Command:   commandClearDiagnostics,
			Arguments: args,
		},
	}
}

func nonNil(lines []int) []int {
	if lines == nil {
		return []int{}
	}
	return lines
}
