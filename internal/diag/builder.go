package diag

import (
	"errors"
	"fmt"
	"strings"

	"vigil/internal/source"
	"vigil/internal/violation"
)

// ErrNoPrimaryLocation is returned for a violation that cannot be anchored.
var ErrNoPrimaryLocation = errors.New("no usable primary location")

// DefaultProduct names the tool in each diagnostic's source.
const DefaultProduct = "Code Analyzer"

// widenedRules report ranges that stop short of the offending code, so their
// diagnostics are stretched to the end of the line. Each entry is a known
// analyzer quirk, not a rule about ranges in general.
var widenedRules = []string{
	"pmd:ApexDoc",
	"pmd:AvoidGlobalModifier",
	"pmd:ExcessiveParameterList",
}

// FactoryOptions tunes how diagnostics are built.
type FactoryOptions struct {
	// Product replaces DefaultProduct in the source label.
	Product string
	// WidenRules adds "engine:rule" or bare "rule" names to the built-in list
	// of rules whose range runs to the end of the line.
	WidenRules []string
}

// Factory turns violations into diagnostics.
type Factory struct {
	levels  SeverityResolver
	product string
	widen   map[string]struct{}
}

// NewFactory builds a Factory. A nil resolver maps every level to SevWarning.
func NewFactory(levels SeverityResolver, opts FactoryOptions) *Factory {
	if levels == nil {
		levels = Levels{}
	}
	product := strings.TrimSpace(opts.Product)
	if product == "" {
		product = DefaultProduct
	}
	widen := make(map[string]struct{}, len(widenedRules)+len(opts.WidenRules))
	for _, r := range widenedRules {
		widen[r] = struct{}{}
	}
	for _, r := range opts.WidenRules {
		if r = strings.TrimSpace(r); r != "" {
			widen[r] = struct{}{}
		}
	}
	return &Factory{levels: levels, product: product, widen: widen}
}

// SetLevels swaps the severity configuration.
func (f *Factory) SetLevels(levels SeverityResolver) {
	if levels == nil {
		levels = Levels{}
	}
	f.levels = levels
}

// FromViolation builds a diagnostic from a copy of v. It fails when v has no
// locations or its primary location names no file. A SevNone result is still
// returned; callers decide whether to store it.
func (f *Factory) FromViolation(v *violation.Violation) (*Diagnostic, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil violation", ErrNoPrimaryLocation)
	}
	primary, err := v.PrimaryLocation()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoPrimaryLocation, v.Key(), err)
	}
	owned := v.Clone()
	d := &Diagnostic{
		URI:       source.FileURI(primary.FileName()),
		Code:      codeFor(owned),
		Source:    fmt.Sprintf("%s via %s", owned.Engine, f.product),
		Message:   owned.Message,
		Violation: owned,
	}
	d.Severity = f.Resolve(d)
	f.Rebuild(d)
	return d, nil
}

// Resolve picks the severity for d from the current configuration. Stale
// diagnostics stay demoted unless configuration suppresses them.
func (f *Factory) Resolve(d *Diagnostic) Severity {
	level := 0
	if d.Violation != nil {
		level = d.Violation.Severity
	}
	sev := f.levels.Resolve(level)
	if sev != SevNone && d.IsStale() {
		return SevInformation
	}
	return sev
}

// Rebuild derives Range and Related from the diagnostic's violation. It is
// the single place where locations become ranges, so rebasing goes through it
// as well. A primary index that no longer points at a location is reset to 0.
func (f *Factory) Rebuild(d *Diagnostic) {
	v := d.Violation
	if v == nil || len(v.Locations) == 0 {
		return
	}
	if v.PrimaryLocationIndex < 0 || v.PrimaryLocationIndex >= len(v.Locations) {
		v.PrimaryLocationIndex = 0
	}
	d.Range = f.primaryRange(v, v.Locations[v.PrimaryLocationIndex])
	d.Related = f.related(d.URI, v)
}

func (f *Factory) primaryRange(v *violation.Violation, loc violation.CodeLocation) source.Range {
	r := LocationRange(loc)
	if f.widens(v) {
		r.End.Character = source.EndOfLine
	}
	return r
}

func (f *Factory) widens(v *violation.Violation) bool {
	if _, ok := f.widen[v.Key()]; ok {
		return true
	}
	_, ok := f.widen[v.Rule]
	return ok
}

func (f *Factory) related(uri string, v *violation.Violation) []Related {
	if len(v.Locations) < 2 {
		return nil
	}
	out := make([]Related, 0, len(v.Locations)-1)
	for i, loc := range v.Locations {
		if i == v.PrimaryLocationIndex {
			continue
		}
		target := uri
		if loc.HasFile() {
			target = source.FileURI(loc.FileName())
		}
		msg := DefaultRelatedMessage
		if loc.Comment != nil && *loc.Comment != "" {
			msg = *loc.Comment
		}
		out = append(out, Related{URI: target, Range: LocationRange(loc), Message: msg})
	}
	return out
}

func codeFor(v *violation.Violation) Code {
	if len(v.Resources) == 1 {
		return Code{Value: v.Rule, Target: v.Resources[0]}
	}
	return Code{Value: v.Rule}
}
