package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vigil/internal/driver"
	"vigil/internal/source"
	"vigil/internal/store"
	"vigil/internal/suppress"
)

type suppressOptions struct {
	rules   []string
	line    int
	scope   string
	write   bool
	results []string
}

func newSuppressCmd() *cobra.Command {
	var opts suppressOptions
	cmd := &cobra.Command{
		Use:   "suppress <file>",
		Short: "Suppress rules at a line or for its enclosing class",
		Long: `suppress builds the edit that silences the given rules. With --scope class it adds or
extends @SuppressWarnings on the innermost class around --line; with --scope line it appends
the engine's line marker. The edit is previewed unless --write is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuppress(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringArrayVar(&opts.rules, "rule", nil, "rule to suppress as engine:rule (repeatable)")
	cmd.Flags().IntVar(&opts.line, "line", 0, "one-based line the suppression applies to")
	cmd.Flags().StringVar(&opts.scope, "scope", "class", "suppression scope (class|line)")
	cmd.Flags().BoolVar(&opts.write, "write", false, "apply the edit to the file")
	cmd.Flags().StringArrayVar(&opts.results, "results", nil, "results files whose matching diagnostics are reported as cleared")
	_ = cmd.MarkFlagRequired("rule")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

func runSuppress(cmd *cobra.Command, path string, opts suppressOptions) error {
	if opts.line < 1 {
		return fmt.Errorf("--line must be at least 1")
	}
	rules := make([]store.RuleFilter, 0, len(opts.rules))
	for _, r := range opts.rules {
		rules = append(rules, store.ParseRuleFilter(r))
	}

	sess, cleanup, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(content)
	uri := source.FileURI(path)

	var sup *suppress.Suppression
	switch strings.ToLower(opts.scope) {
	case "class":
		sup, err = suppress.ForClass(uri, text, opts.line-1, rules...)
	case "line":
		sup, err = suppress.ForLine(uri, text, opts.line-1, rules...)
	default:
		return fmt.Errorf("invalid --scope value %q (expected class|line)", opts.scope)
	}
	if errors.Is(err, suppress.ErrAlreadySuppressed) {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to do:", err)
		return nil
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, color.New(color.Bold).Sprint(sup.Title))
	if opts.write {
		if err := suppress.ApplyFile(path, sup.Edits); err != nil {
			return err
		}
		fmt.Fprintf(out, "updated %s\n", path)
	} else {
		updated, err := suppress.Apply(text, sup.Edits)
		if err != nil {
			return err
		}
		writeLineDiff(out, text, updated)
	}

	if len(opts.results) > 0 {
		res, err := driver.Diagnose(cmd.Context(), opts.results, driver.DiagnoseOptions{
			Factory: sess.cfg.Factory(),
			Tracer:  sess.tracer,
		})
		if err != nil {
			return err
		}
		res.Store.HandleChange(sup.Change())
		fmt.Fprintf(out, "clears %d diagnostics\n", sup.ClearFrom(res.Store))
	}
	return nil
}

// writeLineDiff prints the lines that differ between before and after, with
// one-based line numbers.
func writeLineDiff(out io.Writer, before, after string) {
	a, b := source.SplitLines(before), source.SplitLines(after)
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	del := color.New(color.FgRed)
	add := color.New(color.FgGreen)
	for i := prefix; i < len(a)-suffix; i++ {
		fmt.Fprintln(out, del.Sprintf("%4d - %s", i+1, a[i]))
	}
	for i := prefix; i < len(b)-suffix; i++ {
		fmt.Fprintln(out, add.Sprintf("%4d + %s", i+1, b[i]))
	}
}
