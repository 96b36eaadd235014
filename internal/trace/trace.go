package trace

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Tracer receives events. Implementations must be safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// Level controls how much is recorded.
type Level uint8

const (
	LevelOff      Level = iota
	LevelError          // ring only, dumped when the command ends
	LevelCommand        // commands and LSP requests
	LevelDocument       // per-file work
	LevelDebug          // everything, each rebased diagnostic included
)

var levelNames = [...]string{"off", "error", "command", "document", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel reads a level name. The empty string means off.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return LevelOff, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are recorded at level l.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError, LevelCommand:
		return scope <= ScopeCommand
	case LevelDocument:
		return scope <= ScopeDocument
	}
	return true
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeCommand covers a CLI command or one LSP request.
	ScopeCommand Scope = iota + 1
	// ScopeDocument covers work on a single file: scans, clears, edits.
	ScopeDocument
	// ScopeDiagnostic covers a single diagnostic being rebased or dropped.
	ScopeDiagnostic
)

func (s Scope) String() string {
	switch s {
	case ScopeCommand:
		return "command"
	case ScopeDocument:
		return "document"
	case ScopeDiagnostic:
		return "diagnostic"
	}
	return "unknown"
}

// Kind is the type of an event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	}
	return "unknown"
}

// Event is one trace record. URI and DiagID are set for events about a
// document or a single diagnostic.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	URI      string
	DiagID   uint64
	Detail   string
	Extra    map[string]string
}

var seq, spans atomic.Uint64

func nextSeq() uint64 { return seq.Add(1) }

// Point emits an instant event when t accepts scope.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !accepts(t, scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Name:     name,
		Detail:   detail,
	})
}

func accepts(t Tracer, scope Scope) bool {
	return t != nil && t.Enabled() && t.Level().ShouldEmit(scope)
}

type nopTracer struct{}

func (nopTracer) Emit(*Event)   {}
func (nopTracer) Flush() error  { return nil }
func (nopTracer) Close() error  { return nil }
func (nopTracer) Level() Level  { return LevelOff }
func (nopTracer) Enabled() bool { return false }

// Nop discards everything.
var Nop Tracer = nopTracer{}

type ctxKey struct{}

// WithTracer attaches t to ctx. A nil t attaches Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}
