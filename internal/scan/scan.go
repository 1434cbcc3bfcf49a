package scan

import (
	"fmt"
	"sync"

	"github.com/veilscan/veilscan/internal/resolve"
	"github.com/veilscan/veilscan/internal/rules"
	"github.com/veilscan/veilscan/internal/types"
)

// Scanner applies a rule set to text. The zero value is not usable; build
// one with New.
type Scanner struct {
	set   *rules.Set
	rules []rules.Rule
}

// New returns a Scanner over set. The set is shared, not copied; it is
// immutable so any number of Scanners and goroutines may use it.
func New(set *rules.Set) *Scanner {
	return &Scanner{set: set, rules: set.Rules()}
}

// Set returns the rule set this scanner applies.
func (s *Scanner) Set() *rules.Set { return s.set }

// ScanChunk runs every rule over text and returns raw candidates with
// offsets translated by base, plus diagnostics for dropped candidates.
// Each rule contributes its standard find-all matches: leftmost match at
// each position, then continue after the match end. A validator that
// returns false discards the candidate silently; a validator error
// discards it and records a diagnostic. Zero-length matches are dropped
// and reported once per rule per call.
func (s *Scanner) ScanChunk(text string, base int) ([]types.RawMatch, []types.Diagnostic) {
	var (
		raw   []types.RawMatch
		diags []types.Diagnostic
	)
	for _, r := range s.rules {
		reportedEmpty := false
		for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if end <= start {
				if !reportedEmpty {
					diags = append(diags, types.Diagnostic{
						Kind:   types.DiagInvalidMatch,
						Rule:   r.Name,
						Offset: base + start,
						Detail: "zero-length match",
					})
					reportedEmpty = true
				}
				continue
			}
			m := text[start:end]
			if r.Validator != nil {
				ok, err := r.Validator(m)
				if err != nil {
					diags = append(diags, types.Diagnostic{
						Kind:   types.DiagValidatorFailure,
						Rule:   r.Name,
						Offset: base + start,
						Detail: fmt.Sprintf("validator %s: %v", r.ValidatorID, err),
					})
					continue
				}
				if !ok {
					continue
				}
			}
			raw = append(raw, types.RawMatch{
				Rule:     r.Name,
				Priority: r.Priority,
				Start:    base + start,
				End:      base + end,
				Text:     m,
			})
		}
	}
	return raw, diags
}

// Scan scans a whole buffer and returns the resolved result. Empty input
// yields an empty result, never an error.
func (s *Scanner) Scan(text string) *types.ScanResult {
	raw, diags := s.ScanChunk(text, 0)
	return s.assemble(resolve.Resolve(raw), diags, len(text))
}

func (s *Scanner) assemble(winners []types.RawMatch, diags []types.Diagnostic, sourceLen int) *types.ScanResult {
	ms := make([]types.Match, len(winners))
	for i, w := range winners {
		sev := types.SevMed
		if r, ok := s.set.Get(w.Rule); ok {
			sev = r.Severity
		}
		ms[i] = types.Match{Rule: w.Rule, Severity: sev, Start: w.Start, End: w.End, Text: w.Text}
	}
	return &types.ScanResult{SourceLen: sourceLen, Matches: ms, Diagnostics: diags}
}

type matchKey struct {
	rule       string
	start, end int
}

type diagKey struct {
	kind   types.DiagKind
	rule   string
	offset int
}

// Collector accumulates raw matches across chunk scans, deduplicating
// candidates seen in the overlap region of adjacent chunks by their
// (rule, start, end) identity. Chunks must overlap by at least the set's
// OverlapHint so no match is split by a boundary. A Collector may be fed
// from multiple goroutines.
type Collector struct {
	mu    sync.Mutex
	sc    *Scanner
	seen  map[matchKey]struct{}
	dseen map[diagKey]struct{}
	raw   []types.RawMatch
	diags []types.Diagnostic
}

// NewCollector returns an empty Collector for sc.
func NewCollector(sc *Scanner) *Collector {
	return &Collector{
		sc:    sc,
		seen:  make(map[matchKey]struct{}),
		dseen: make(map[diagKey]struct{}),
	}
}

// AddChunk scans one chunk at the given absolute base offset and folds
// the outcome in.
func (c *Collector) AddChunk(text string, base int) {
	raw, diags := c.sc.ScanChunk(text, base)
	c.Add(raw, diags)
}

// Add folds pre-computed chunk output in, dropping duplicates.
func (c *Collector) Add(raw []types.RawMatch, diags []types.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range raw {
		k := matchKey{rule: m.Rule, start: m.Start, end: m.End}
		if _, dup := c.seen[k]; dup {
			continue
		}
		c.seen[k] = struct{}{}
		c.raw = append(c.raw, m)
	}
	for _, d := range diags {
		k := diagKey{kind: d.Kind, rule: d.Rule, offset: d.Offset}
		if _, dup := c.dseen[k]; dup {
			continue
		}
		c.dseen[k] = struct{}{}
		c.diags = append(c.diags, d)
	}
}

// Result resolves everything collected so far into a ScanResult for a
// source of the given total length. The Collector remains usable.
func (c *Collector) Result(sourceLen int) *types.ScanResult {
	c.mu.Lock()
	raw := make([]types.RawMatch, len(c.raw))
	copy(raw, c.raw)
	diags := make([]types.Diagnostic, len(c.diags))
	copy(diags, c.diags)
	c.mu.Unlock()
	return c.sc.assemble(resolve.Resolve(raw), diags, sourceLen)
}
