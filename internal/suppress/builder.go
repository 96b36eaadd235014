// Package suppress builds the source edits that silence a rule for a class or
// a single line, together with the diagnostics those edits make obsolete.
package suppress

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"vigil/internal/scope"
	"vigil/internal/source"
	"vigil/internal/store"
)

var (
	ErrNoRules           = errors.New("no rules to suppress")
	ErrNoClass           = errors.New("line is not inside a class")
	ErrLineOutOfRange    = errors.New("line is outside the document")
	ErrAlreadySuppressed = errors.New("rules are already suppressed")
	ErrUnsupportedEngine = errors.New("engine has no line suppression marker")
)

// Clear names the diagnostics a suppression makes obsolete.
type Clear struct {
	URI    string           `json:"uri"`
	Range  source.Range     `json:"range"`
	Filter store.RuleFilter `json:"filter"`
}

// Suppression is an edit to one document plus the clears that go with it.
type Suppression struct {
	Title  string     `json:"title"`
	URI    string     `json:"uri"`
	Edits  []TextEdit `json:"edits"`
	Clears []Clear    `json:"clears"`
}

// Change is the store event for the suppression's edits, last edit first so
// each range is still valid when it is applied.
func (s *Suppression) Change() store.ChangeEvent {
	ev := store.ChangeEvent{URI: s.URI, Changes: make([]store.ContentChange, 0, len(s.Edits))}
	sorted := append([]TextEdit(nil), s.Edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start.After(sorted[j].Range.Start)
	})
	for _, e := range sorted {
		r := e.Range
		ev.Changes = append(ev.Changes, store.ContentChange{Range: &r, Text: e.NewText})
	}
	return ev
}

// ClearFrom removes the suppressed diagnostics from st and returns how many
// were removed. Clear ranges are in post-edit coordinates, so st must have
// seen the edits already, through an editor didChange or Change.
func (s *Suppression) ClearFrom(st *store.Store) int {
	n := 0
	for _, c := range s.Clears {
		r, f := c.Range, c.Filter
		n += st.ClearFromFile(c.URI, store.ClearOptions{Range: &r, Filter: &f})
	}
	return n
}

// Token is the name a rule goes by inside @SuppressWarnings.
func Token(f store.RuleFilter) string {
	switch {
	case f.Engine == "":
		return f.Rule
	case strings.EqualFold(f.Engine, "pmd"):
		return "PMD." + f.Rule
	}
	return f.Engine + "." + f.Rule
}

var suppressWarnings = regexp.MustCompile(`(?i)@SuppressWarnings\s*\(\s*'([^']*)'`)

// ForClass suppresses rules for the innermost class around line, either by
// extending an existing @SuppressWarnings on the declaration or by adding
// one above it.
func ForClass(uri, text string, line int, rules ...store.RuleFilter) (*Suppression, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	cls, ok := scope.Scan(text).ClassAt(line)
	if !ok {
		return nil, fmt.Errorf("%w: line %d", ErrNoClass, line+1)
	}
	lines := source.SplitLines(text)
	blanked := source.SplitLines(scope.Blank(text))

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = Token(r)
	}

	s := &Suppression{
		Title: fmt.Sprintf("Suppress %s in this class", strings.Join(names, ", ")),
		URI:   uri,
	}
	for ln := annotationStart(blanked, cls.Start); ln <= cls.Start && ln < len(lines); ln++ {
		edit, found, err := extendAnnotation(lines[ln], blanked[ln], ln, names)
		if err != nil {
			return nil, err
		}
		if found {
			s.Edits = []TextEdit{edit}
			s.Clears = clears(uri, cls.Range(), rules)
			return s, nil
		}
	}

	decl := lines[cls.Start]
	indent := decl[:len(decl)-len(strings.TrimLeft(decl, " \t"))]
	s.Edits = []TextEdit{{
		Range:   source.NewRange(cls.Start, 0, cls.Start, 0),
		NewText: fmt.Sprintf("%s@SuppressWarnings('%s')%s", indent, strings.Join(names, ", "), lineEnding(text)),
	}}
	// the new annotation line pushes the class down by one
	s.Clears = clears(uri, source.Lines(cls.Start+1, cls.End+1), rules)
	return s, nil
}

func clears(uri string, r source.Range, rules []store.RuleFilter) []Clear {
	out := make([]Clear, len(rules))
	for i, f := range rules {
		out[i] = Clear{URI: uri, Range: r, Filter: f}
	}
	return out
}

// annotationStart walks up from line over lines that hold only annotations.
func annotationStart(blanked []string, line int) int {
	for line > 0 && line-1 < len(blanked) && strings.HasPrefix(strings.TrimSpace(blanked[line-1]), "@") {
		line--
	}
	return line
}

// extendAnnotation adds the missing names to a @SuppressWarnings found on raw.
func extendAnnotation(raw, blanked string, line int, names []string) (TextEdit, bool, error) {
	for _, m := range suppressWarnings.FindAllStringSubmatchIndex(raw, -1) {
		// blanking keeps UTF-16 columns, not byte offsets
		at := source.OffsetForPosition(blanked, source.Pos(0, source.UTF16Len(raw[:m[0]])))
		if at >= len(blanked) || blanked[at] != '@' {
			continue // inside a comment
		}
		current := raw[m[2]:m[3]]
		have := make(map[string]struct{})
		for _, tok := range strings.Split(current, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				have[strings.ToLower(tok)] = struct{}{}
			}
		}
		var missing []string
		for _, n := range names {
			if _, ok := have[strings.ToLower(n)]; !ok {
				missing = append(missing, n)
			}
		}
		if len(missing) == 0 {
			return TextEdit{}, true, fmt.Errorf("%w: %s", ErrAlreadySuppressed, strings.Join(names, ", "))
		}
		merged := strings.Join(missing, ", ")
		if strings.TrimSpace(current) != "" {
			merged = strings.TrimRight(current, " ") + ", " + merged
		}
		start := source.UTF16Len(raw[:m[2]])
		end := start + source.UTF16Len(current)
		return TextEdit{
			Range:   source.NewRange(line, start, line, end),
			NewText: merged,
			OldText: current,
		}, true, nil
	}
	return TextEdit{}, false, nil
}

// ForLine suppresses rules on a single line with the engine's end-of-line
// marker. All rules must come from the same engine.
func ForLine(uri, text string, line int, rules ...store.RuleFilter) (*Suppression, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	lines := source.SplitLines(text)
	if line < 0 || line >= len(lines) {
		return nil, fmt.Errorf("%w: line %d", ErrLineOutOfRange, line+1)
	}
	engine := strings.ToLower(rules[0].Engine)
	for _, r := range rules[1:] {
		if !strings.EqualFold(r.Engine, engine) {
			return nil, fmt.Errorf("%w: mixed engines %q and %q", ErrUnsupportedEngine, rules[0].Engine, r.Engine)
		}
	}

	raw := lines[line]
	var marker string
	switch engine {
	case "pmd", "":
		if strings.Contains(raw, "NOPMD") {
			return nil, fmt.Errorf("%w: line %d", ErrAlreadySuppressed, line+1)
		}
		marker = "NOPMD"
	case "eslint":
		names := make([]string, len(rules))
		for i, r := range rules {
			names[i] = r.Rule
		}
		marker = "eslint-disable-line " + strings.Join(names, ", ")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, rules[0].Engine)
	}

	end := source.UTF16Len(raw)
	s := &Suppression{
		Title: fmt.Sprintf("Suppress %s on this line", describe(rules)),
		URI:   uri,
		Edits: []TextEdit{{
			Range:   source.NewRange(line, end, line, end),
			NewText: " // " + marker,
		}},
	}
	s.Clears = clears(uri, source.Lines(line, line), rules)
	return s, nil
}

func describe(rules []store.RuleFilter) string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}

func lineEnding(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
