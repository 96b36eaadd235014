package lsp

import (
	"vigil/internal/diag"
	"vigil/internal/source"
)

func toPosition(p source.Position) position {
	return position{Line: source.SafeUint32(p.Line), Character: source.SafeUint32(p.Character)}
}

func toRange(r source.Range) lspRange {
	return lspRange{Start: toPosition(r.Start), End: toPosition(r.End)}
}

func fromRange(r lspRange) source.Range {
	return source.NewRange(int(r.Start.Line), int(r.Start.Character), int(r.End.Line), int(r.End.Character))
}

func toDiagnostic(d *diag.Diagnostic) lspDiagnostic {
	out := lspDiagnostic{
		Range:    toRange(d.Range),
		Severity: int(d.Severity),
		Code:     d.Code.Value,
		Source:   d.Source,
		Message:  d.Message,
	}
	if d.Code.Target != "" {
		out.CodeDescription = &codeDescription{Href: d.Code.Target}
	}
	for _, rel := range d.Related {
		out.RelatedInformation = append(out.RelatedInformation, relatedInformation{
			Location: location{URI: rel.URI, Range: toRange(rel.Range)},
			Message:  rel.Message,
		})
	}
	engine, rule := d.Rule()
	out.Data = &diagnosticData{ID: d.ID, Engine: engine, Rule: rule}
	return out
}

func toDiagnostics(list []*diag.Diagnostic) []lspDiagnostic {
	out := make([]lspDiagnostic, 0, len(list))
	for _, d := range list {
		out = append(out, toDiagnostic(d))
	}
	return out
}
