package violation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Results is the document an engine run produces.
type Results struct {
	Violations []Violation `json:"violations"`
}

// InvalidError reports the violations that could not be used, by index.
type InvalidError struct {
	Index int
	Rule  string
	Err   error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("violation %d (%s): %v", e.Index, e.Rule, e.Err)
}

func (e *InvalidError) Unwrap() error { return e.Err }

// Decode reads engine output. Both {"violations": [...]} and a bare array are
// accepted. Invalid entries are dropped and reported through the joined error;
// the valid ones are still returned.
func Decode(r io.Reader) ([]Violation, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read violations: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var list []Violation
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode violations: %w", err)
		}
	} else {
		var res Results
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decode violations: %w", err)
		}
		list = res.Violations
	}

	valid := make([]Violation, 0, len(list))
	var errs []error
	for i := range list {
		if err := list[i].Validate(); err != nil {
			errs = append(errs, &InvalidError{Index: i, Rule: list[i].Key(), Err: err})
			continue
		}
		valid = append(valid, list[i])
	}
	return valid, errors.Join(errs...)
}
