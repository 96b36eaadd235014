package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StorageMode selects where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota // write to the output as they happen
	ModeRing                      // keep in memory, dump on request
	ModeBoth                      // both of the above
)

var modeNames = [...]string{"stream", "ring", "both"}

func (m StorageMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode reads a mode name. The empty string means stream.
func ParseMode(s string) (StorageMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return ModeStream, nil
	}
	for i, n := range modeNames {
		if n == name {
			return StorageMode(i), nil
		}
	}
	return ModeStream, fmt.Errorf("invalid trace mode: %q (expected: %s)", s, strings.Join(modeNames[:], "|"))
}

// Config describes the tracer New builds.
type Config struct {
	Level      Level
	Mode       StorageMode
	OutputPath string // "-" or "" for stderr
	Format     Format
	RingSize   int
	Heartbeat  time.Duration
}

// New builds the tracer described by cfg. LevelError always keeps events in
// the ring only so they can be dumped when the command fails.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	mode := cfg.Mode
	if cfg.Level == LevelError {
		mode = ModeRing
	}
	if mode == ModeRing {
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	}

	w, err := openOutput(cfg.OutputPath)
	if err != nil {
		return nil, err
	}
	format := cfg.Format
	if format == FormatAuto {
		format = formatForPath(cfg.OutputPath)
	}
	stream := NewStreamTracer(w, cfg.Level, format)
	if mode == ModeStream {
		return stream, nil
	}
	return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
}

func formatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl", ".json":
		return FormatNDJSON
	}
	return FormatText
}

func openOutput(path string) (io.Writer, error) {
	switch path {
	case "", "-", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("trace output %s: %w", path, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("trace output %s: %w", path, err)
	}
	return f, nil
}

func isStdStream(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr
}

// DumpRing writes the ring buffer held by t, if any, to w.
func DumpRing(t Tracer, w io.Writer) error {
	switch r := t.(type) {
	case *RingTracer:
		return r.Dump(w)
	case *MultiTracer:
		if ring := r.Ring(); ring != nil {
			return ring.Dump(w)
		}
	}
	return nil
}
