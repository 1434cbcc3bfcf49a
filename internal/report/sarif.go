package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/veilscan/veilscan/internal/types"
)

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	ShortDescription sarifMessage      `json:"shortDescription"`
	Properties       map[string]string `json:"properties,omitempty"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int          `json:"startLine"`
	StartColumn int          `json:"startColumn,omitempty"`
	Snippet     sarifMessage `json:"snippet"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer.
func WriteSARIF(w io.Writer, findings []types.Finding) error {
	return WriteSARIFWithStats(w, findings, nil)
}

// WriteSARIFWithStats writes findings as SARIF 2.1.0 and, when stats is
// non-nil, records artifact scan statistics under run properties. Matched
// text appears only masked in snippets.
func WriteSARIFWithStats(w io.Writer, findings []types.Finding, stats map[string]int) error {
	driver := sarifDriver{Name: "veilscan", Version: time.Now().Format("2006.01.02")}
	ruleIndex := map[string]int{}
	for _, f := range findings {
		if _, ok := ruleIndex[f.Rule]; ok {
			continue
		}
		ruleIndex[f.Rule] = len(driver.Rules)
		driver.Rules = append(driver.Rules, sarifRule{
			ID:               f.Rule,
			ShortDescription: sarifMessage{Text: f.Rule},
			Properties:       map[string]string{"severity": string(f.Severity)},
		})
	}

	run := sarifRun{Tool: sarifTool{Driver: driver}}
	for _, f := range findings {
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.Rule,
			RuleIndex: ruleIndex[f.Rule],
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: f.Rule + " detected"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Path},
					Region: sarifRegion{
						StartLine:   f.Line,
						StartColumn: f.Column,
						Snippet:     sarifMessage{Text: maskValue(f.Match)},
					},
				},
			}},
		})
	}
	if stats != nil {
		run.Properties = map[string]any{"artifactStats": stats}
	}

	doc := sarif{
		Version: "2.1.0",
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
