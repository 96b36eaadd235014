package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vigil/internal/diag"
	"vigil/internal/diagfmt"
	"vigil/internal/driver"
	"vigil/internal/source"
	"vigil/internal/version"
)

type diagOptions struct {
	format   string
	pathMode string
	max      int
	related  bool
	fixes    bool
	width    int
	failOn   string
	jobs     int
	timings  bool
}

func newDiagCmd() *cobra.Command {
	var opts diagOptions
	cmd := &cobra.Command{
		Use:   "diag <results.json>...",
		Short: "Render engine results as diagnostics",
		Long:  "diag converts engine violations into diagnostics using the configured severity map and prints them.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiag(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "pretty", "output format (pretty|json|sarif)")
	cmd.Flags().StringVar(&opts.pathMode, "path-mode", "auto", "path display (auto|absolute|relative|basename)")
	cmd.Flags().IntVar(&opts.max, "max", 0, "max diagnostics to print (0 = all)")
	cmd.Flags().BoolVar(&opts.related, "related", true, "include related locations")
	cmd.Flags().BoolVar(&opts.fixes, "fixes", false, "include engine fixes")
	cmd.Flags().IntVar(&opts.width, "width", 0, "truncate source lines to this many cells (0 = no limit)")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "exit with an error when a diagnostic is at least this severe (error|warning|info|hint)")
	cmd.Flags().IntVar(&opts.jobs, "jobs", 0, "max parallel results files (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.timings, "timings", false, "print phase timings to stderr")
	return cmd
}

func runDiag(cmd *cobra.Command, args []string, opts diagOptions) error {
	format := strings.ToLower(opts.format)
	switch format {
	case "pretty", "json", "sarif":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or sarif)", opts.format)
	}
	pathMode, ok := diagfmt.ParsePathMode(opts.pathMode)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q", opts.pathMode)
	}
	failOn := diag.SevNone
	if opts.failOn != "" {
		sev, ok := diag.ParseSeverity(opts.failOn)
		if !ok || sev == diag.SevNone {
			return fmt.Errorf("invalid --fail-on value %q", opts.failOn)
		}
		failOn = sev
	}

	sess, cleanup, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	timer := newTimer(opts.timings)
	defer writeTimings(cmd, timer)

	endLoad := timer.Begin("load")
	res, err := driver.Diagnose(cmd.Context(), args, driver.DiagnoseOptions{
		Factory: sess.cfg.Factory(),
		Jobs:    opts.jobs,
		Cache:   sess.openCache(cmd),
		Tracer:  sess.tracer,
	})
	if err != nil {
		return err
	}
	endLoad(fmt.Sprintf("%d diagnostics", len(res.Diagnostics)))
	if res.Warnings != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: some violations were skipped:\n%v\n", res.Warnings)
	}

	endRender := timer.Begin("render")
	base, _ := os.Getwd()
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, res.Diagnostics, diagfmt.JSONOpts{
			PathMode:       pathMode,
			BaseDir:        base,
			Max:            opts.max,
			IncludeRelated: opts.related,
			IncludeFixes:   opts.fixes,
		})
	case "sarif":
		err = diagfmt.Sarif(out, res.Diagnostics, diagfmt.SarifRunMeta{
			ToolName:       "vigil",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args,
		})
	default:
		list := res.Diagnostics
		if opts.max > 0 && opts.max < len(list) {
			list = list[:opts.max]
		}
		err = diagfmt.Pretty(out, list, readDocument, diagfmt.PrettyOpts{
			Color:       sess.color,
			PathMode:    pathMode,
			BaseDir:     base,
			Width:       opts.width,
			ShowRelated: opts.related,
			ShowFixes:   opts.fixes,
		})
	}
	endRender(format)
	if err != nil {
		return err
	}

	if failOn != diag.SevNone {
		for _, d := range res.Diagnostics {
			if d.Severity <= failOn {
				return fmt.Errorf("found %s diagnostics", strings.ToLower(d.Severity.String()))
			}
		}
	}
	return nil
}

// readDocument loads the file behind a file:// URI for snippets.
func readDocument(uri string) (string, bool) {
	path := source.URIToPath(uri)
	if path == "" {
		return "", false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(content), true
}
