package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vigil/internal/cache"
	"vigil/internal/config"
	"vigil/internal/observ"
	"vigil/internal/trace"
)

// session is the per-invocation state shared by the subcommands.
type session struct {
	cfg       config.Config
	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
	color     bool
}

// loadConfig reads --config when given, otherwise searches upwards from the
// working directory. A missing file means defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		return config.Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Discover(cwd)
	if errors.Is(err, config.ErrNoConfig) {
		return cfg, nil
	}
	return cfg, err
}

// startSession loads configuration, sets the colour mode, starts profiling
// and installs the tracer. The returned cleanup must run before the command exits.
func startSession(cmd *cobra.Command) (*session, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	useCol, err := useColor(cmd)
	if err != nil {
		return nil, nil, err
	}
	color.NoColor = !useCol

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, nil, err
	}
	tracer, heartbeat, stopTracing, err := setupTracing(cmd, cfg)
	if err != nil {
		stopProfiling()
		return nil, nil, err
	}
	cleanup := func() {
		stopTracing()
		stopProfiling()
	}
	return &session{cfg: cfg, tracer: tracer, heartbeat: heartbeat, color: useCol}, cleanup, nil
}

// openCache opens the on-disk cache when enabled. A cache that cannot be
// opened is reported and skipped.
func (s *session) openCache(cmd *cobra.Command) *cache.Cache {
	if !s.cfg.Cache.Enabled {
		return nil
	}
	var (
		c   *cache.Cache
		err error
	)
	if s.cfg.Cache.Dir != "" {
		c, err = cache.OpenDir(s.cfg.Cache.Dir)
	} else {
		c, err = cache.Open("vigil")
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "cache disabled: %v\n", err)
		return nil
	}
	return c
}

// newTimer returns a phase timer when enabled, otherwise nil.
func newTimer(enabled bool) *observ.Timer {
	if !enabled {
		return nil
	}
	return observ.NewTimer()
}

func writeTimings(cmd *cobra.Command, timer *observ.Timer) {
	if timer == nil {
		return
	}
	if err := timer.WriteSummary(cmd.ErrOrStderr()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "timings: %v\n", err)
	}
}
