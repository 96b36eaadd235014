package trace

import "time"

// Span brackets one operation with begin and end events. A span from a
// tracer that does not accept its scope records nothing.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	uri     string
	started time.Time
	extra   map[string]string
}

// Begin starts a span. parent is the enclosing span ID, or 0.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	return begin(t, scope, name, "", parent)
}

// BeginDocument starts a document-scoped span about uri. Marks made on it
// carry the same uri.
func BeginDocument(t Tracer, name, uri string, parent uint64) *Span {
	return begin(t, ScopeDocument, name, uri, parent)
}

func begin(t Tracer, scope Scope, name, uri string, parent uint64) *Span {
	if !accepts(t, scope) {
		return &Span{tracer: Nop}
	}
	s := &Span{
		tracer:  t,
		id:      spans.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		uri:     uri,
		started: time.Now(),
	}
	t.Emit(s.event(KindSpanBegin, s.started, ""))
	return s
}

func (s *Span) event(kind Kind, at time.Time, detail string) *Event {
	return &Event{
		Time:     at,
		Seq:      nextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		URI:      s.uri,
		Detail:   detail,
	}
}

// End emits the end event with detail and any extras, and returns the
// elapsed time.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return 0
	}
	now := time.Now()
	ev := s.event(KindSpanEnd, now, detail)
	ev.Extra = s.extra
	s.tracer.Emit(ev)
	return now.Sub(s.started)
}

// WithExtra records a key/value pair for the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// Mark emits a diagnostic-scoped point under the span, for the diagnostic
// with the given ID.
func (s *Span) Mark(name, detail string, diagID uint64) {
	if s == nil || !accepts(s.tracer, ScopeDiagnostic) {
		return
	}
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      nextSeq(),
		Kind:     KindPoint,
		Scope:    ScopeDiagnostic,
		ParentID: s.id,
		Name:     name,
		URI:      s.uri,
		DiagID:   diagID,
		Detail:   detail,
	})
}

// ID returns the span ID, or 0 for a span that records nothing.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
