package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vigil/internal/driver"
	"vigil/internal/scope"
)

type scanFileJSON struct {
	Path             string `json:"path"`
	ClassStartLines  []int  `json:"classStartLines"`
	ClassEndLines    []int  `json:"classEndLines"`
	MethodStartLines []int  `json:"methodStartLines"`
	MethodEndLines   []int  `json:"methodEndLines"`
	Cached           bool   `json:"cached,omitempty"`
	Error            string `json:"error,omitempty"`
}

func newScanCmd() *cobra.Command {
	var (
		asJSON  bool
		jobs    int
		uiMode  string
		timings bool
	)
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Report class and method boundaries of Apex sources",
		Long:  "scan finds class and method blocks in the given files or directories. Lines are zero-based.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := startSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			mode, err := readToggle("ui", uiMode)
			if err != nil {
				return err
			}
			timer := newTimer(timings)
			defer writeTimings(cmd, timer)

			if len(args) == 0 {
				args = []string{"."}
			}
			endDiscover := timer.Begin("discover")
			files, err := driver.ListFiles(args, sess.cfg.HasExtension)
			if err != nil {
				return err
			}
			endDiscover(fmt.Sprintf("%d files", len(files)))
			if !cmd.Flags().Changed("jobs") {
				jobs = sess.cfg.Scan.Jobs
			}
			opts := driver.ScanOptions{
				Jobs:   jobs,
				Cache:  sess.openCache(cmd),
				Tracer: sess.tracer,
			}

			endScan := timer.Begin("scan")
			var results []driver.ScanResult
			if !asJSON && len(files) > 1 && mode.enabled(os.Stderr) {
				results, err = runScanWithUI(cmd.Context(), "scanning", files, opts)
			} else {
				results, err = driver.ScanFiles(cmd.Context(), files, opts)
			}
			if err != nil {
				return err
			}
			endScan("")

			endRender := timer.Begin("render")
			defer endRender("")
			if asJSON {
				return writeScanJSON(cmd.OutOrStdout(), results)
			}
			writeScanPretty(cmd.OutOrStdout(), results)
			if n := countErrors(results); n > 0 {
				return fmt.Errorf("%d of %d files could not be scanned", n, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "max parallel files (0 = config or GOMAXPROCS)")
	cmd.Flags().StringVar(&uiMode, "ui", "auto", "show a progress view (auto|on|off)")
	cmd.Flags().BoolVar(&timings, "timings", false, "print phase timings to stderr")
	return cmd
}

func writeScanJSON(out io.Writer, results []driver.ScanResult) error {
	payload := make([]scanFileJSON, 0, len(results))
	for _, r := range results {
		item := scanFileJSON{
			Path:             r.Path,
			ClassStartLines:  orEmpty(r.Boundaries.ClassStartLines()),
			ClassEndLines:    orEmpty(r.Boundaries.ClassEndLines()),
			MethodStartLines: orEmpty(r.Boundaries.MethodStartLines()),
			MethodEndLines:   orEmpty(r.Boundaries.MethodEndLines()),
			Cached:           r.Cached,
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		payload = append(payload, item)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeScanPretty(out io.Writer, results []driver.ScanResult) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)
	red := color.New(color.FgRed, color.Bold)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s\n", bold.Sprint(r.Path), red.Sprintf("error: %v", r.Err))
			continue
		}
		header := fmt.Sprintf("%d classes, %d methods", len(r.Boundaries.Classes), len(r.Boundaries.Methods))
		if r.Cached {
			header += " (cached)"
		}
		fmt.Fprintf(out, "%s %s\n", bold.Sprint(r.Path), dim.Sprint(header))
		writeBlocks(out, "class", r.Boundaries.Classes)
		writeBlocks(out, "method", r.Boundaries.Methods)
	}
}

func writeBlocks(out io.Writer, kind string, blocks []scope.Block) {
	for _, b := range blocks {
		suffix := ""
		if !b.Closed {
			suffix = " (unterminated)"
		}
		fmt.Fprintf(out, "  %-6s %d-%d%s\n", kind, b.Start, b.End, suffix)
	}
}

func countErrors(results []driver.ScanResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func orEmpty(lines []int) []int {
	if lines == nil {
		return []int{}
	}
	return lines
}
