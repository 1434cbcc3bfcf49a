package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veilscan/veilscan/internal/rules"
)

// RulesDoc is the YAML shape of a rules file: a list of rule specs, plus
// a merge switch controlling whether they extend or replace the built-in
// catalog.
type RulesDoc struct {
	Merge bool         `yaml:"merge"`
	Rules []rules.Spec `yaml:"rules"`
}

// LoadRules reads a rules file.
func LoadRules(path string) (RulesDoc, error) {
	var doc RulesDoc
	b, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(doc.Rules) == 0 {
		return doc, fmt.Errorf("rules file %s declares no rules", path)
	}
	return doc, nil
}

// BuildSet compiles a rules document. With merge on, file specs override
// built-in rules of the same name in place and new names are appended
// after the catalog; with merge off the file stands alone.
func BuildSet(doc RulesDoc) (*rules.Set, error) {
	if !doc.Merge {
		return rules.NewSet(doc.Rules)
	}
	specs := rules.Builtins()
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.Name] = i
	}
	for _, s := range doc.Rules {
		if i, ok := index[s.Name]; ok {
			specs[i] = s
			continue
		}
		index[s.Name] = len(specs)
		specs = append(specs, s)
	}
	return rules.NewSet(specs)
}
