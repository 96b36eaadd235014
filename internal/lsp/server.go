package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"vigil/internal/diag"
	"vigil/internal/source"
	"vigil/internal/store"
	"vigil/internal/trace"
)

var (
	// ErrExit is returned by Run after "exit" follows "shutdown".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown is returned by Run for an "exit" that was not
	// preceded by "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures a Server. Every field is optional.
type ServerOptions struct {
	// Store receives violations and is rebased as documents change. A nil
	// Store gets one built from Levels.
	Store *store.Store
	// Levels is the severity map that workspace settings are merged over.
	Levels diag.Levels
	// Tracer receives a span per message once tracing is switched on in the
	// client settings.
	Tracer trace.Tracer
	// Version is reported in serverInfo.
	Version string
	// ReadFile loads documents that are not open in the editor.
	ReadFile func(path string) ([]byte, error)
	// Log receives server diagnostics. Defaults to stderr.
	Log io.Writer
}

type document struct {
	text    string
	version int
}

// Server speaks LSP over a byte stream. Messages are handled one at a time
// in arrival order; mu guards the state that the heartbeat reads.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex
	log    io.Writer

	mu        sync.Mutex
	store     *store.Store
	levels    diag.Levels
	docs      map[string]document
	published map[string]struct{}
	root      string
	closing   bool
	traceLSP  bool

	tracer   trace.Tracer
	version  string
	readFile func(string) ([]byte, error)
}

// NewServer reads requests from in and writes responses to out.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	s := &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		log:       opts.Log,
		store:     opts.Store,
		levels:    opts.Levels,
		docs:      make(map[string]document),
		published: make(map[string]struct{}),
		tracer:    opts.Tracer,
		version:   opts.Version,
		readFile:  opts.ReadFile,
	}
	if s.levels == nil {
		s.levels = diag.DefaultLevels()
	}
	if s.store == nil {
		s.store = store.New(store.Options{
			Factory: diag.NewFactory(s.levels, diag.FactoryOptions{}),
			Tracer:  opts.Tracer,
		})
	}
	if s.tracer == nil {
		s.tracer = trace.Nop
	}
	if s.readFile == nil {
		s.readFile = os.ReadFile
	}
	if s.log == nil {
		s.log = os.Stderr
	}
	return s
}

// Run handles messages until exit, EOF, or ctx is done. EOF is a clean stop.
func (s *Server) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		payload, err := readMessage(s.in)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("dropping malformed message: %v", err)
			continue
		}
		if msg.Method == "" {
			// a response to something we never send
			continue
		}
		if err := s.dispatch(&msg); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Status summarises the server state for trace heartbeats.
func (s *Server) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("open=%d files=%d diagnostics=%d", len(s.docs), len(s.store.Files()), s.store.Len())
}

func (s *Server) dispatch(msg *rpcMessage) error {
	if !s.currentTrace() {
		return s.handleMessage(msg)
	}
	span := trace.Begin(s.tracer, trace.ScopeCommand, msg.Method, 0)
	err := s.handleMessage(msg)
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	s.logf("%s handled in %s", msg.Method, span.End(detail))
	return err
}

type handlerFunc func(*Server, *rpcMessage) error

func ignore(*Server, *rpcMessage) error { return nil }

var handlers = map[string]handlerFunc{
	"initialize":                       (*Server).handleInitialize,
	"initialized":                      ignore,
	"shutdown":                         (*Server).handleShutdown,
	"$/cancelRequest":                  ignore,
	"$/setTrace":                       ignore,
	"workspace/didChangeConfiguration": (*Server).handleDidChangeConfiguration,
	"workspace/executeCommand":         (*Server).handleExecuteCommand,
	"textDocument/didOpen":             (*Server).handleDidOpen,
	"textDocument/didChange":           (*Server).handleDidChange,
	"textDocument/didSave":             ignore,
	"textDocument/didClose":            (*Server).handleDidClose,
	"textDocument/codeAction":          (*Server).handleCodeAction,
	"textDocument/foldingRange":        (*Server).handleFoldingRange,
	methodAddViolations:                (*Server).handleAddViolations,
	methodClearDiagnostics:             (*Server).handleClearDiagnostics,
	methodBoundaries:                   (*Server).handleBoundaries,
	methodSuppress:                     (*Server).handleSuppress,
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()
	isRequest := len(msg.ID) > 0

	if msg.Method == "exit" {
		if closing {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	}
	if closing {
		if isRequest {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}
	h, ok := handlers[msg.Method]
	if !ok {
		if isRequest {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
	return h(s, msg)
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := source.URIToPath(params.RootURI)
	if root == "" {
		root = params.RootPath
	}
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()
	s.publish(s.applySettings(params.InitializationOptions)...)

	return s.sendResponse(msg.ID, initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync:       textDocumentSyncOptions{OpenClose: true, Change: syncIncremental},
			CodeActionProvider:     &codeActionOptions{CodeActionKinds: []string{"quickfix"}},
			ExecuteCommandProvider: &executeCommandOptions{Commands: []string{commandClearDiagnostics}},
			FoldingRangeProvider:   true,
		},
		ServerInfo: serverInfo{Name: "vigil", Version: s.version},
	})
}

// handleShutdown withdraws everything published and drops the store.
func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.clearPublishedDiagnostics()
	s.mu.Lock()
	s.store.Dispose()
	s.mu.Unlock()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didOpen: %v", err)
		return nil
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.docs[uri] = document{text: params.TextDocument.Text, version: params.TextDocument.Version}
	s.mu.Unlock()
	s.publish(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didChange: %v", err)
		return nil
	}
	uri := source.CanonicalURI(params.TextDocument.URI)
	if uri == "" || len(params.ContentChanges) == 0 {
		return nil
	}
	ev := store.ChangeEvent{URI: uri, Changes: make([]store.ContentChange, len(params.ContentChanges))}
	for i, change := range params.ContentChanges {
		ev.Changes[i].Text = change.Text
		if change.Range != nil {
			r := fromRange(*change.Range)
			ev.Changes[i].Range = &r
		}
	}

	s.mu.Lock()
	s.docs[uri] = document{
		text:    applyChanges(s.docs[uri].text, ev.Changes),
		version: params.TextDocument.Version,
	}
	changed := s.store.HandleChange(ev)
	verbose := s.traceLSP
	s.mu.Unlock()

	if verbose {
		s.logf("didChange: uri=%s version=%d changes=%d rebased=%t", uri, params.TextDocument.Version, len(ev.Changes), changed)
	}
	if changed {
		s.publish(uri)
	}
	return nil
}

// handleDidClose forgets the buffer but keeps the diagnostics, which
// describe the file on disk.
func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didClose: %v", err)
		return nil
	}
	if uri := source.CanonicalURI(params.TextDocument.URI); uri != "" {
		s.mu.Lock()
		delete(s.docs, uri)
		s.mu.Unlock()
	}
	return nil
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.log, "lsp: "+format+"\n", args...)
}
