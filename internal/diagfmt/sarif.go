package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"vigil/internal/diag"
	"vigil/internal/source"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID      string `json:"id"`
	HelpURI string `json:"helpUri,omitempty"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
}

type sarifLocation struct {
	Physical sarifPhysical `json:"physicalLocation"`
	Message  *sarifMessage `json:"message,omitempty"`
}

type sarifPhysical struct {
	Artifact sarifArtifact `json:"artifactLocation"`
	Region   sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// Sarif writes list as a SARIF v2.1.0 log with a single run. Rule IDs are
// "engine:rule".
func Sarif(w io.Writer, list []*diag.Diagnostic, meta SarifRunMeta) error {
	name := meta.ToolName
	if name == "" {
		name = "vigil"
	}
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: name, Version: meta.ToolVersion, Rules: []sarifRule{}}},
		Results: make([]sarifResult, 0, len(list)),
	}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: true}}
	}

	rules := make(map[string]string)
	for _, d := range list {
		id := ruleID(d)
		if _, ok := rules[id]; !ok || rules[id] == "" {
			rules[id] = d.Code.Target
		}
		res := sarifResult{
			RuleID:    id,
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
			Locations: []sarifLocation{sarifLoc(d.URI, d.Range, "")},
		}
		for _, rel := range d.Related {
			res.RelatedLocations = append(res.RelatedLocations, sarifLoc(rel.URI, rel.Range, rel.Message))
		}
		run.Results = append(run.Results, res)
	}
	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{ID: id, HelpURI: rules[id]})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}})
}

func ruleID(d *diag.Diagnostic) string {
	engine, rule := d.Rule()
	if engine == "" {
		return rule
	}
	return engine + ":" + rule
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

func sarifLoc(uri string, r source.Range, msg string) sarifLocation {
	loc := sarifLocation{Physical: sarifPhysical{
		Artifact: sarifArtifact{URI: uri},
		Region: sarifRegion{
			StartLine:   r.Start.Line + 1,
			StartColumn: r.Start.Character + 1,
			EndLine:     r.End.Line + 1,
		},
	}}
	if r.End.Character < source.EndOfLine {
		loc.Physical.Region.EndColumn = r.End.Character + 1
	}
	if msg != "" {
		loc.Message = &sarifMessage{Text: msg}
	}
	return loc
}
