package lsp

import (
	"vigil/internal/source"
	"vigil/internal/store"
)

// applyChanges replays content changes in order. A change without a range
// replaces the whole document.
func applyChanges(text string, changes []store.ContentChange) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		text = source.ApplyChange(text, *change.Range, change.Text)
	}
	return text
}
