package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a periodic event so a long LSP session shows whether it
// is idle or stuck. Each beat carries the output of the status function,
// if one is set.
type Heartbeat struct {
	tracer Tracer
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once

	mu     sync.Mutex
	status func() string
}

// StartHeartbeat returns nil when t is disabled or interval is not positive.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{tracer: t, stop: make(chan struct{}), done: make(chan struct{})}
	go h.loop(interval)
	return h
}

// SetStatus installs fn as the source of each beat's detail. fn runs on the
// heartbeat goroutine and must be safe for that.
func (h *Heartbeat) SetStatus(fn func() string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.status = fn
	h.mu.Unlock()
}

func (h *Heartbeat) loop(interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var n uint64
	for {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			n++
			h.beat(now, n)
		}
	}
}

func (h *Heartbeat) beat(now time.Time, n uint64) {
	h.mu.Lock()
	status := h.status
	h.mu.Unlock()
	detail := "#" + strconv.FormatUint(n, 10)
	if status != nil {
		if s := status(); s != "" {
			detail += " " + s
		}
	}
	h.tracer.Emit(&Event{
		Time:   now,
		Seq:    nextSeq(),
		Kind:   KindHeartbeat,
		Scope:  ScopeCommand,
		Name:   "heartbeat",
		Detail: detail,
	})
}

// Stop ends the loop and waits for it. Safe to call more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
