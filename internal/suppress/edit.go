package suppress

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"vigil/internal/source"
)

var (
	// ErrStaleEdit is returned when the text under an edit no longer matches
	// what the edit was built against.
	ErrStaleEdit = errors.New("existing text does not match expected content")
	// ErrConflict is returned for overlapping edits.
	ErrConflict = errors.New("edits overlap")
)

// TextEdit replaces Range with NewText. OldText, when set, must equal the
// text currently under Range.
type TextEdit struct {
	Range   source.Range `json:"range"`
	NewText string       `json:"newText"`
	OldText string       `json:"-"`
}

// Apply performs edits on text. Edits are positioned against the original
// text and may be given in any order.
func Apply(text string, edits []TextEdit) (string, error) {
	sorted := append([]TextEdit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start.After(sorted[j].Range.Start)
	})
	for i := 1; i < len(sorted); i++ {
		if conflicts(sorted[i], sorted[i-1]) {
			return text, fmt.Errorf("%w: %s and %s", ErrConflict, sorted[i].Range, sorted[i-1].Range)
		}
	}
	// back to front, so earlier offsets stay valid
	for _, e := range sorted {
		start := source.OffsetForPosition(text, e.Range.Start)
		end := source.OffsetForPosition(text, e.Range.End)
		if end < start {
			end = start
		}
		if e.OldText != "" && text[start:end] != e.OldText {
			return text, fmt.Errorf("%w at %s", ErrStaleEdit, e.Range)
		}
		text = text[:start] + e.NewText + text[end:]
	}
	return text, nil
}

// conflicts reports whether two edits' ranges overlap. Two insertions never
// conflict; an insertion conflicts with a replacement that strictly contains it.
func conflicts(a, b TextEdit) bool {
	ae, be := a.Range.Empty(), b.Range.Empty()
	switch {
	case ae && be:
		return false
	case ae:
		return b.Range.Start.Before(a.Range.Start) && a.Range.Start.Before(b.Range.End)
	case be:
		return a.Range.Start.Before(b.Range.Start) && b.Range.Start.Before(a.Range.End)
	}
	return a.Range.Start.Before(b.Range.End) && b.Range.Start.Before(a.Range.End)
}

// ApplyFile applies edits to the file at path, keeping its permissions.
func ApplyFile(path string, edits []TextEdit) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	out, err := Apply(string(data), edits)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, []byte(out), mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
