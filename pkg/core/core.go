package core

import (
	"github.com/veilscan/veilscan/internal/engine"
	"github.com/veilscan/veilscan/internal/redact"
	"github.com/veilscan/veilscan/internal/rules"
	"github.com/veilscan/veilscan/internal/scan"
	"github.com/veilscan/veilscan/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type Config = engine.Config
type Result = engine.Result
type Finding = types.Finding
type Match = types.Match
type ScanResult = types.ScanResult
type Severity = types.Severity
type RuleSpec = rules.Spec
type RuleSet = rules.Set
type ConfigError = rules.ConfigError

// Severity levels carried on findings and matches.
const (
	SevLow  = types.SevLow
	SevMed  = types.SevMed
	SevHigh = types.SevHigh
)

// Scan is the stable entrypoint for other programs. It walks cfg.Root (or
// the staged/history/diff scope cfg selects) and returns resolved findings.
func Scan(cfg Config) ([]Finding, error) {
	return engine.Scan(cfg)
}

// ScanWithStats runs a scan and returns findings together with timing,
// per-file diagnostics, and artifact abort counters.
func ScanWithStats(cfg Config) (Result, error) {
	return engine.ScanWithStats(cfg)
}

// ScanText scans a single string with the built-in catalog. The result
// carries non-overlapping matches ordered by start offset.
func ScanText(text string) (*ScanResult, error) {
	set, err := rules.Default()
	if err != nil {
		return nil, err
	}
	return scan.New(set).Scan(text), nil
}

// ScanTextWith scans a single string with a caller-built rule set. The set
// must come from NewRuleSet or DefaultRuleSet.
func ScanTextWith(set *RuleSet, text string) *ScanResult {
	return scan.New(set).Scan(text)
}

// RedactText scans text with the built-in catalog and replaces each match
// with a [REDACTED:<rule>] placeholder.
func RedactText(text string) (string, error) {
	res, err := ScanText(text)
	if err != nil {
		return "", err
	}
	return redact.Text(text, res.Matches, nil), nil
}

// NewRuleSet compiles specs into an immutable rule set. It fails with a
// *ConfigError (see errors.As) on the first invalid spec.
func NewRuleSet(specs []RuleSpec) (*RuleSet, error) {
	return rules.NewSet(specs)
}

// DefaultRuleSet returns the compiled built-in catalog.
func DefaultRuleSet() (*RuleSet, error) {
	return rules.Default()
}

// BuiltinRuleNames returns the built-in rule names in catalog order.
// This is exposed for convenience to avoid importing internals directly.
func BuiltinRuleNames() []string { return rules.BuiltinNames() }
