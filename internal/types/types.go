package types

// Severity is a coarse-grained risk level for a rule's category of PII.
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "medium"
	SevHigh Severity = "high"
)

// RawMatch is a single occurrence of one rule's pattern before conflict
// resolution. Offsets are byte positions into the scanned text, half-open:
// the matched text is text[Start:End].
type RawMatch struct {
	Rule     string `json:"rule"`
	Priority int    `json:"priority"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Text     string `json:"text"`
}

// Match is a resolved occurrence. Within one ScanResult matches never
// overlap and are ordered by Start.
type Match struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Text     string   `json:"text"`
}

// Len returns the span length in bytes.
func (m Match) Len() int { return m.End - m.Start }

// DiagKind classifies a non-fatal problem observed while scanning.
type DiagKind string

const (
	// DiagInvalidMatch marks a pattern that produced a zero-length or
	// out-of-bounds span. The span is dropped and scanning continues.
	DiagInvalidMatch DiagKind = "invalid_match"
	// DiagValidatorFailure marks a validator that returned an error. The
	// candidate is treated as rejected and scanning continues.
	DiagValidatorFailure DiagKind = "validator_failure"
)

// Diagnostic records a recoverable per-rule problem. Diagnostics ride
// inside the ScanResult so a misbehaving rule degrades one rule's output
// instead of failing the scan.
type Diagnostic struct {
	Kind   DiagKind `json:"kind"`
	Rule   string   `json:"rule"`
	Offset int      `json:"offset"`
	Detail string   `json:"detail,omitempty"`
}

// ScanResult is the outcome of scanning one text: the resolved,
// non-overlapping matches plus any diagnostics collected along the way.
// An empty Matches slice is a normal result, not an error.
type ScanResult struct {
	SourceLen   int          `json:"source_len"`
	Matches     []Match      `json:"matches"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Finding locates one resolved match inside a file (or a virtual path such
// as an archive member). Line and Column are 1-based; offsets are bytes
// into the file content.
type Finding struct {
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Match    string   `json:"match"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Context  string   `json:"context,omitempty"` // e.g. the JSON/YAML key path for structured files
}
