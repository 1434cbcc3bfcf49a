package rules

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/veilscan/veilscan/internal/types"
)

// fallbackMaxLen is assumed for rules that do not declare a maximum match
// length. It feeds the overlap hint for chunked scanning.
const fallbackMaxLen = 256

// Spec is the external, serializable form of one rule. Rule files are YAML
// or JSON lists of these.
type Spec struct {
	Name        string         `yaml:"name" json:"name"`
	Pattern     string         `yaml:"pattern" json:"pattern"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Priority    int            `yaml:"priority" json:"priority"`
	Severity    types.Severity `yaml:"severity,omitempty" json:"severity,omitempty"`
	Validator   string         `yaml:"validator,omitempty" json:"validator,omitempty"`
	MaxLen      int            `yaml:"max_len,omitempty" json:"max_len,omitempty"`
	Example     string         `yaml:"example,omitempty" json:"example,omitempty"`
}

// Rule is one compiled detection rule. Rules are created by NewSet and not
// modified afterwards.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
	Priority    int
	Severity    types.Severity
	Validator   Validator // nil when the rule has no validator
	ValidatorID string
	MaxLen      int
	Example     string
}

// ConfigError reports an invalid rule definition. It is returned only
// while building a Set; a built Set never fails at scan time.
type ConfigError struct {
	Rule   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rule %q: %s: %v", e.Rule, e.Reason, e.Err)
	}
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Set is an immutable, ordered collection of compiled rules. A Set is safe
// for concurrent use by any number of scans.
type Set struct {
	rules  []Rule
	byName map[string]int
}

// NewSet compiles specs into a Set, preserving declaration order. It fails
// with a *ConfigError on the first empty name or pattern, duplicate name,
// negative priority, non-compiling pattern, or unknown validator ID.
func NewSet(specs []Spec) (*Set, error) {
	return NewSetWithValidators(specs, nil)
}

// NewSetWithValidators is NewSet with extra validator funcs available by
// ID. Extra entries shadow built-in validator IDs.
func NewSetWithValidators(specs []Spec, extra map[string]Validator) (*Set, error) {
	s := &Set{
		rules:  make([]Rule, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, &ConfigError{Rule: spec.Name, Reason: "empty rule name"}
		}
		if spec.Pattern == "" {
			return nil, &ConfigError{Rule: spec.Name, Reason: "empty pattern"}
		}
		if _, dup := s.byName[spec.Name]; dup {
			return nil, &ConfigError{Rule: spec.Name, Reason: "duplicate rule name"}
		}
		if spec.Priority < 0 {
			return nil, &ConfigError{Rule: spec.Name, Reason: fmt.Sprintf("negative priority %d", spec.Priority)}
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, &ConfigError{Rule: spec.Name, Reason: "invalid pattern", Err: err}
		}
		var vfn Validator
		if spec.Validator != "" {
			fn, ok := extra[spec.Validator]
			if !ok {
				fn, ok = lookupValidator(spec.Validator)
			}
			if !ok {
				return nil, &ConfigError{Rule: spec.Name, Reason: fmt.Sprintf("unknown validator %q", spec.Validator)}
			}
			vfn = fn
		}
		sev := spec.Severity
		if sev == "" {
			sev = types.SevMed
		}
		maxLen := spec.MaxLen
		if maxLen <= 0 {
			maxLen = fallbackMaxLen
		}
		s.byName[spec.Name] = len(s.rules)
		s.rules = append(s.rules, Rule{
			Name:        spec.Name,
			Pattern:     re,
			Description: spec.Description,
			Priority:    spec.Priority,
			Severity:    sev,
			Validator:   vfn,
			ValidatorID: spec.Validator,
			MaxLen:      maxLen,
			Example:     spec.Example,
		})
	}
	return s, nil
}

// Len returns the number of rules in the set.
func (s *Set) Len() int { return len(s.rules) }

// Rules returns the rules in declaration order. The slice is a copy.
func (s *Set) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Get returns the rule with the given name.
func (s *Set) Get(name string) (Rule, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Names returns the rule names in declaration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Name
	}
	return out
}

// OverlapHint returns the largest MaxLen across the set. Chunked scans
// that overlap adjacent chunks by at least this many bytes cannot split a
// match across a boundary.
func (s *Set) OverlapHint() int {
	hint := 0
	for _, r := range s.rules {
		if r.MaxLen > hint {
			hint = r.MaxLen
		}
	}
	if hint == 0 {
		hint = fallbackMaxLen
	}
	return hint
}

// Filter derives a new Set keeping only enabled rules and dropping
// disabled ones. An empty enable list keeps everything. Unknown names in
// either list are a *ConfigError so a typo cannot silently scan nothing.
func (s *Set) Filter(enable, disable []string) (*Set, error) {
	for _, n := range enable {
		if _, ok := s.byName[n]; !ok {
			return nil, &ConfigError{Rule: n, Reason: "unknown rule in enable list"}
		}
	}
	for _, n := range disable {
		if _, ok := s.byName[n]; !ok {
			return nil, &ConfigError{Rule: n, Reason: "unknown rule in disable list"}
		}
	}
	keep := func(name string) bool {
		if len(enable) > 0 {
			found := false
			for _, n := range enable {
				if n == name {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		for _, n := range disable {
			if n == name {
				return false
			}
		}
		return true
	}
	out := &Set{byName: make(map[string]int)}
	for _, r := range s.rules {
		if keep(r.Name) {
			out.byName[r.Name] = len(out.rules)
			out.rules = append(out.rules, r)
		}
	}
	return out, nil
}

// WithoutValidators derives a Set whose rules match on pattern alone.
// Useful when triaging what the validators are filtering out.
func (s *Set) WithoutValidators() *Set {
	out := &Set{
		rules:  make([]Rule, len(s.rules)),
		byName: make(map[string]int, len(s.byName)),
	}
	for i, r := range s.rules {
		r.Validator = nil
		r.ValidatorID = ""
		out.rules[i] = r
		out.byName[r.Name] = i
	}
	return out
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// Default returns the compiled built-in catalog. The set is built once and
// shared; callers must not assume exclusive ownership.
func Default() (*Set, error) {
	defaultOnce.Do(func() {
		defaultSet, defaultErr = NewSet(Builtins())
	})
	return defaultSet, defaultErr
}
