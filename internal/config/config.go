package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for veilscan. Fields
// are pointers so the CLI can tell "unset" from a zero value when merging
// flag, local, and global layers.
type FileConfig struct {
	Include         *string `yaml:"include"`
	Exclude         *string `yaml:"exclude"`
	MaxBytes        *int64  `yaml:"max_bytes"`
	Enable          *string `yaml:"enable"`
	Disable         *string `yaml:"disable"`
	Threads         *int    `yaml:"threads"`
	MinPriority     *int    `yaml:"min_priority"`
	FailOn          *string `yaml:"fail_on"`
	NoColor         *bool   `yaml:"no_color"`
	DefaultExcludes *bool   `yaml:"default_excludes"`
	NoValidators    *bool   `yaml:"no_validators"`
	NoStructured    *bool   `yaml:"no_structured"`
	ShowMatches     *bool   `yaml:"show_matches"`
	Placeholder     *string `yaml:"placeholder"`

	// Rule catalog overrides.
	RulesFile  *string `yaml:"rules_file"`
	RulesMerge *bool   `yaml:"rules_merge"`

	// Artifact scanning config mirrors CLI flags.
	Archives        *bool   `yaml:"archives"`
	Containers      *bool   `yaml:"containers"`
	MaxArchiveBytes *int64  `yaml:"max_archive_bytes"`
	MaxEntries      *int    `yaml:"max_entries"`
	MaxDepth        *int    `yaml:"max_depth"`
	ScanTimeBudget  *string `yaml:"scan_time_budget"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .veilscan.yml/.yaml and veilscan.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".veilscan.yml", ".veilscan.yaml", "veilscan.yml", "veilscan.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "veilscan", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}
