package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"vigil/internal/diag"
	"vigil/internal/source"
)

const tabWidth = 4

type palette struct {
	path, code, gutter, caret, note *color.Color
	sev                             map[diag.Severity]*color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:   color.New(color.Bold),
		code:   color.New(color.FgMagenta),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgGreen, color.Bold),
		note:   color.New(color.FgCyan),
		sev: map[diag.Severity]*color.Color{
			diag.SevError:       color.New(color.FgRed, color.Bold),
			diag.SevWarning:     color.New(color.FgYellow, color.Bold),
			diag.SevInformation: color.New(color.FgBlue, color.Bold),
			diag.SevHint:        color.New(color.FgCyan),
		},
	}
	all := []*color.Color{p.path, p.code, p.gutter, p.caret, p.note}
	for _, c := range p.sev {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty writes each diagnostic as
//
//	<path>:<line>:<col>: <SEV> <code>: <message> [<source>]
//
// followed by the source line and a ^~~~ underline when texts knows the
// document, then related locations and fixes when enabled.
func Pretty(w io.Writer, list []*diag.Diagnostic, texts TextSource, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	lines := make(map[string][]string)
	for i, d := range list {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		var b strings.Builder
		pos := fmt.Sprintf("%s:%d:%d:", formatPath(d.URI, opts.PathMode, opts.BaseDir), d.Range.Start.Line+1, d.Range.Start.Character+1)
		fmt.Fprintf(&b, "%s %s %s: %s", p.path.Sprint(pos), sevColor(p, d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.Value), d.Message)
		if d.Source != "" {
			fmt.Fprintf(&b, " [%s]", d.Source)
		}
		b.WriteString("\n")

		if texts != nil {
			src, ok := lines[d.URI]
			if !ok {
				if text, found := texts(d.URI); found {
					src = source.SplitLines(text)
				}
				lines[d.URI] = src
			}
			if d.Range.Start.Line < len(src) {
				writeSnippet(&b, p, src[d.Range.Start.Line], d.Range, opts.Width)
			}
		}

		if opts.ShowRelated {
			for _, rel := range d.Related {
				fmt.Fprintf(&b, "  %s %s:%d:%d: %s\n", p.note.Sprint("= related:"),
					formatPath(rel.URI, opts.PathMode, opts.BaseDir), rel.Range.Start.Line+1, rel.Range.Start.Character+1, rel.Message)
			}
		}
		if opts.ShowFixes && d.Violation != nil {
			for _, fix := range d.Violation.Fixes {
				r := diag.LocationRange(fix.Location)
				fmt.Fprintf(&b, "  %s line %d: %s\n", p.note.Sprint("= fix:"), r.Start.Line+1, strings.TrimSpace(fix.FixedCode))
			}
		}
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func sevColor(p palette, s diag.Severity) *color.Color {
	if c, ok := p.sev[s]; ok {
		return c
	}
	return p.path
}

// writeSnippet prints line with a gutter and underlines the part r covers.
// Ranges that continue past this line are underlined to its end.
func writeSnippet(b *strings.Builder, p palette, line string, r source.Range, width int) {
	start := source.OffsetForPosition(line, source.Pos(0, r.Start.Character))
	end := len(line)
	if r.End.Line == r.Start.Line {
		end = source.OffsetForPosition(line, source.Pos(0, r.End.Character))
	}
	if end < start {
		end = start
	}

	before := expandTabs(line[:start])
	covered := expandTabs(line[start:end])
	shown := expandTabs(line)
	if width > 0 && runewidth.StringWidth(shown) > width {
		shown = runewidth.Truncate(shown, width, "…")
	}

	gutter := fmt.Sprintf("%4d | ", r.Start.Line+1)
	pad := strings.Repeat(" ", runewidth.StringWidth(gutter)-2) + "| "
	b.WriteString(p.gutter.Sprint(gutter))
	b.WriteString(shown)
	b.WriteString("\n")

	n := runewidth.StringWidth(covered)
	underline := "^"
	if n > 1 {
		underline += strings.Repeat("~", n-1)
	}
	b.WriteString(p.gutter.Sprint(pad))
	b.WriteString(strings.Repeat(" ", runewidth.StringWidth(before)))
	b.WriteString(p.caret.Sprint(underline))
	b.WriteString("\n")
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
