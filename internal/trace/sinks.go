package trace

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// gate holds the level shared by every sink.
type gate struct{ level Level }

func (g gate) Level() Level  { return g.level }
func (g gate) Enabled() bool { return g.level != LevelOff }

// StreamTracer writes and flushes each event as soon as it arrives.
type StreamTracer struct {
	gate
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	format Format
}

// NewStreamTracer writes to w. If w is an io.Closer other than a standard
// stream, Close closes it.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	t := &StreamTracer{gate: gate{level}, w: bufio.NewWriterSize(w, 32*1024), format: format}
	if c, ok := w.(io.Closer); ok && !isStdStream(w) {
		t.closer = c
	}
	return t
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	line := FormatEvent(ev, t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.w.Write(line)
	_ = t.w.Flush()
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

func (t *StreamTracer) Close() error {
	err := t.Flush()
	if t.closer != nil {
		err = errors.Join(err, t.closer.Close())
	}
	return err
}

// RingTracer keeps the most recent events in memory.
type RingTracer struct {
	gate
	mu     sync.Mutex
	events []*Event
	next   int
	full   bool
}

// NewRingTracer keeps up to capacity events. A non-positive capacity
// falls back to 4096.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{gate: gate{level}, events: make([]*Event, capacity)}
}

func (r *RingTracer) Emit(ev *Event) {
	if ev == nil || !r.level.ShouldEmit(ev.Scope) {
		return
	}
	r.mu.Lock()
	r.events[r.next] = ev
	r.next++
	if r.next == len(r.events) {
		r.next, r.full = 0, true
	}
	r.mu.Unlock()
}

func (r *RingTracer) Flush() error { return nil }
func (r *RingTracer) Close() error { return nil }

// Snapshot returns the buffered events, oldest first.
func (r *RingTracer) Snapshot() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]*Event(nil), r.events[:r.next]...)
	}
	out := make([]*Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

// Dump writes the buffered events to w as NDJSON.
func (r *RingTracer) Dump(w io.Writer) error {
	for _, ev := range r.Snapshot() {
		if _, err := w.Write(FormatEvent(ev, FormatNDJSON)); err != nil {
			return err
		}
	}
	return nil
}

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	gate
	tracers []Tracer
}

// NewMultiTracer drops nil and disabled tracers from the list.
func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	m := &MultiTracer{gate: gate{level}}
	for _, t := range tracers {
		if t != nil && t.Enabled() {
			m.tracers = append(m.tracers, t)
		}
	}
	return m
}

func (m *MultiTracer) Emit(ev *Event) {
	for _, t := range m.tracers {
		t.Emit(ev)
	}
}

func (m *MultiTracer) Flush() error {
	var errs []error
	for _, t := range m.tracers {
		errs = append(errs, t.Flush())
	}
	return errors.Join(errs...)
}

func (m *MultiTracer) Close() error {
	var errs []error
	for _, t := range m.tracers {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}

// Ring returns the first ring tracer in the fan-out, or nil.
func (m *MultiTracer) Ring() *RingTracer {
	for _, t := range m.tracers {
		if r, ok := t.(*RingTracer); ok {
			return r
		}
	}
	return nil
}
