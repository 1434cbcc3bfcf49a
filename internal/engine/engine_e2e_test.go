package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/veilscan/veilscan/internal/rules"
)

// Basic end-to-end: create a dir with a file containing PII, run a scan
// with defaults, and expect at least one finding.
func TestScanWithStats_Basic(t *testing.T) {
	dir := t.TempDir()
	content := "email = jane.doe@example.com\nphone: (555) 123-4567\n"
	if err := os.WriteFile(filepath.Join(dir, "config.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := ScanWithStats(Config{Root: dir, Threads: 2, MaxBytes: 1 << 20})
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(res.Findings) == 0 {
		t.Fatalf("expected findings > 0")
	}
	if res.FilesScanned == 0 {
		t.Fatalf("expected FilesScanned > 0")
	}
	for _, f := range res.Findings {
		if f.Path != "config.txt" {
			t.Fatalf("unexpected path %q", f.Path)
		}
		if f.Line == 0 || f.Column == 0 {
			t.Fatalf("finding missing position: %+v", f)
		}
	}
}

func TestScanWithStats_DisableRules(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("jane@example.com"), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := ScanWithStats(Config{Root: dir, DisableRules: "email", NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 0 {
		t.Fatalf("expected no findings with email disabled, got %+v", res.Findings)
	}
	if res.FilesScanned != 1 {
		t.Fatalf("FilesScanned = %d, want 1", res.FilesScanned)
	}
}

func TestScanWithStats_UnknownRuleName(t *testing.T) {
	dir := t.TempDir()
	_, err := ScanWithStats(Config{Root: dir, EnableRules: "no_such_rule"})
	if err == nil {
		t.Fatal("expected error for unknown rule name")
	}
	var cerr *rules.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestScanWithStats_MinPriority(t *testing.T) {
	dir := t.TempDir()
	content := "zip 90210 and ssn 123-45-6789\n"
	if err := os.WriteFile(filepath.Join(dir, "rec.txt"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := ScanWithStats(Config{Root: dir, MinPriority: 50, NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 || res.Findings[0].Rule != "ssn" {
		t.Fatalf("expected only the ssn finding, got %+v", res.Findings)
	}
}

func TestScanWithStats_StructuredContext(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"email": "jane@example.com"}`), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := ScanWithStats(Config{Root: dir, Structured: true, NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) == 0 {
		t.Fatal("expected a finding")
	}
	if res.Findings[0].Context != "email" {
		t.Fatalf("Context = %q, want %q", res.Findings[0].Context, "email")
	}
}

func TestScanWithStats_CustomRulesAndDiagnostics(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ids.txt"), []byte("ok L123 bad L666\n"), 0644); err != nil {
		t.Fatal(err)
	}
	set, err := rules.NewSetWithValidators([]rules.Spec{
		{Name: "level", Pattern: `\bL\d{3}\b`, Validator: "no666"},
	}, map[string]rules.Validator{
		"no666": func(s string) (bool, error) {
			if s == "L666" {
				return false, errors.New("forbidden level")
			}
			return true, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := ScanWithStats(Config{Root: dir, Rules: set, NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 || res.Findings[0].Match != "L123" {
		t.Fatalf("findings = %+v", res.Findings)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", res.Diagnostics)
	}
	if res.Diagnostics[0].Path != "ids.txt" {
		t.Fatalf("diagnostic path = %q", res.Diagnostics[0].Path)
	}
}

func TestScanWithStats_DryRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("jane@example.com"), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := ScanWithStats(Config{Root: dir, DryRun: true, NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 0 {
		t.Fatalf("dry run must not scan, got %+v", res.Findings)
	}
	if res.FilesScanned != 1 {
		t.Fatalf("FilesScanned = %d, want 1", res.FilesScanned)
	}
}
