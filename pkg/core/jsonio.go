package core

import (
	"encoding/json"
	"io"
)

// MarshalFindings pretty-prints findings as JSON for humans or pipelines.
// A nil slice is written as an empty array so consumers always see a list.
func MarshalFindings(w io.Writer, findings []Finding) error {
	if findings == nil {
		findings = []Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

// UnmarshalFindings decodes findings JSON, useful for ingesting a previous
// scan's output.
func UnmarshalFindings(r io.Reader) ([]Finding, error) {
	var fs []Finding
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return nil, err
	}
	return fs, nil
}
