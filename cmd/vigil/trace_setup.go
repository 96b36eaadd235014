package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vigil/internal/config"
	"vigil/internal/trace"
)

// setupTracing builds the tracer from the [trace] table of cfg with any
// trace flags layered on top, and attaches it to the command context.
// It returns the tracer, the heartbeat (nil unless requested) and a cleanup
// function.
func setupTracing(cmd *cobra.Command, cfg config.Config) (trace.Tracer, *trace.Heartbeat, func(), error) {
	root := cmd.Root()

	tc, err := cfg.TraceConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	if f := root.PersistentFlags().Lookup("trace"); f != nil && f.Changed {
		tc.OutputPath = f.Value.String()
		if tc.Level == trace.LevelOff {
			tc.Level = trace.LevelCommand
		}
	}
	if f := root.PersistentFlags().Lookup("trace-level"); f != nil && f.Changed {
		level, err := trace.ParseLevel(f.Value.String())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid trace level: %w", err)
		}
		tc.Level = level
	}
	if f := root.PersistentFlags().Lookup("trace-mode"); f != nil && f.Changed {
		mode, err := trace.ParseMode(f.Value.String())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid trace mode: %w", err)
		}
		tc.Mode = mode
	}

	tc.RingSize, err = root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	tc.Heartbeat, err = root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	if tc.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return trace.Nop, nil, func() {}, nil
	}

	tracer, err := trace.New(tc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	heartbeat := trace.StartHeartbeat(tracer, tc.Heartbeat)

	cleanup := func() {
		heartbeat.Stop()
		if tc.Level == trace.LevelError {
			if err := trace.DumpRing(tracer, cmd.ErrOrStderr()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, heartbeat, cleanup, nil
}
