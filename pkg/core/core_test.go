package core

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScan_Smoke(t *testing.T) {
	dir := t.TempDir()
	seed := "contact: jane.doe@example.com\n"
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	findings, err := Scan(Config{Root: dir, NoCache: true})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(findings), findings)
	}
	f := findings[0]
	if f.Path != "notes.txt" || f.Rule != "email" || f.Match != "jane.doe@example.com" {
		t.Fatalf("unexpected finding: %+v", f)
	}
	if f.Line != 1 {
		t.Fatalf("expected line 1, got %d", f.Line)
	}
}

func TestScanWithStats_CountsFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("plain text\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("ssn 123-45-6789\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := ScanWithStats(Config{Root: dir, NoCache: true})
	if err != nil {
		t.Fatalf("ScanWithStats error: %v", err)
	}
	if res.FilesScanned != 2 {
		t.Fatalf("expected 2 files scanned, got %d", res.FilesScanned)
	}
	if len(res.Findings) != 1 || res.Findings[0].Rule != "ssn" {
		t.Fatalf("unexpected findings: %+v", res.Findings)
	}
	if res.Duration <= 0 {
		t.Fatal("expected a positive duration")
	}
}

func TestScanText(t *testing.T) {
	res, err := ScanText("reach me at jane.doe@example.com today")
	if err != nil {
		t.Fatalf("ScanText error: %v", err)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(res.Matches), res.Matches)
	}
	m := res.Matches[0]
	if m.Rule != "email" || m.Text != "jane.doe@example.com" {
		t.Fatalf("unexpected match: %+v", m)
	}
	if m.Severity != SevMed {
		t.Fatalf("expected medium severity, got %s", m.Severity)
	}
}

func TestScanTextWith_CustomSet(t *testing.T) {
	set, err := NewRuleSet([]RuleSpec{
		{Name: "employee_id", Pattern: `\bEMP-\d{5}\b`, Priority: 50},
	})
	if err != nil {
		t.Fatal(err)
	}
	res := ScanTextWith(set, "badge EMP-90210 and email jane@example.com")
	if len(res.Matches) != 1 {
		t.Fatalf("expected only the custom rule to match, got %+v", res.Matches)
	}
	if res.Matches[0].Rule != "employee_id" || res.Matches[0].Text != "EMP-90210" {
		t.Fatalf("unexpected match: %+v", res.Matches[0])
	}
}

func TestRedactText(t *testing.T) {
	out, err := RedactText("SSN: 123-45-6789")
	if err != nil {
		t.Fatalf("RedactText error: %v", err)
	}
	if out != "SSN: [REDACTED:ssn]" {
		t.Fatalf("unexpected redaction: %q", out)
	}
}

func TestNewRuleSet_InvalidSpec(t *testing.T) {
	_, err := NewRuleSet([]RuleSpec{{Name: "bad", Pattern: "("}})
	if err == nil {
		t.Fatal("expected an error for an invalid pattern")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected a *ConfigError, got %T", err)
	}
	if ce.Rule != "bad" {
		t.Fatalf("expected the error to name the rule, got %q", ce.Rule)
	}
}

func TestBuiltinRuleNames(t *testing.T) {
	names := BuiltinRuleNames()
	if len(names) == 0 {
		t.Fatal("expected non-empty rule names")
	}
	if names[0] != "email" {
		t.Fatalf("expected catalog order starting with email, got %q", names[0])
	}
}

func TestDefaultRuleSet(t *testing.T) {
	set, err := DefaultRuleSet()
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != len(BuiltinRuleNames()) {
		t.Fatalf("set has %d rules, names has %d", set.Len(), len(BuiltinRuleNames()))
	}
}

func TestMarshalFindings_RoundTrip(t *testing.T) {
	in := []Finding{
		{Path: "a.txt", Line: 3, Rule: "email", Severity: SevMed, Match: "x@example.com", Start: 10, End: 23},
	}
	var buf bytes.Buffer
	if err := MarshalFindings(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := UnmarshalFindings(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestMarshalFindings_NilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := MarshalFindings(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Fatalf("expected [], got %q", got)
	}
}
