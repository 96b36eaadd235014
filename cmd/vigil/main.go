package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vigil/internal/version"
)

// newRootCmd builds the command tree. Every invocation gets fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vigil",
		Short:         "Static-analysis diagnostics that follow your edits",
		Long:          `vigil turns engine violations into editor diagnostics, keeps them anchored while documents change, and builds suppressions for them`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to vigil.toml (default: search upwards from the working directory)")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	root.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	root.PersistentFlags().String("trace-level", "", "trace level (off|error|command|document|debug)")
	root.PersistentFlags().String("trace-mode", "", "trace storage mode (stream|ring|both)")
	root.PersistentFlags().Int("trace-ring-size", 4096, "events kept in ring mode")
	root.PersistentFlags().Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	root.AddCommand(
		newScanCmd(),
		newBlankCmd(),
		newDiagCmd(),
		newSuppressCmd(),
		newLSPCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "vigil:", err)
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
