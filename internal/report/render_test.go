package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/veilscan/veilscan/internal/types"
)

func TestPrintText_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, nil, PrintOptions{Duration: 1200 * time.Millisecond, FilesScanned: 10})
	out := buf.String()
	if !strings.Contains(out, "No PII found") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Files scanned: 10") {
		t.Fatalf("expected footer with files scanned; got: %q", out)
	}
}

func TestPrintText_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{Path: "a.txt", Line: 1, Match: "jane.doe@example.com", Rule: "email", Severity: types.SevMed}}
	PrintText(&buf, fs, PrintOptions{NoColor: true})
	out := buf.String()
	if !strings.Contains(out, "Findings: 1") {
		t.Fatalf("expected findings header; got: %q", out)
	}
	if !strings.Contains(out, "email") {
		t.Fatalf("expected rule column; got: %q", out)
	}
	if strings.Contains(out, "jane.doe@example.com") {
		t.Fatalf("expected matched text masked by default; got: %q", out)
	}
}

func TestPrintText_ShowMatches(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{Path: "a.txt", Line: 1, Match: "jane.doe@example.com", Rule: "email", Severity: types.SevMed}}
	PrintText(&buf, fs, PrintOptions{NoColor: true, ShowMatches: true})
	if !strings.Contains(buf.String(), "jane.doe@example.com") {
		t.Fatalf("expected full match with ShowMatches; got: %q", buf.String())
	}
}

func TestPrintText_IncludesContext(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{Path: "cfg.yaml", Line: 2, Match: "jane@example.com", Rule: "email", Severity: types.SevMed, Context: "customer.email"}}
	PrintText(&buf, fs, PrintOptions{NoColor: true})
	if !strings.Contains(buf.String(), "cfg.yaml:2 customer.email") {
		t.Fatalf("expected key path in location; got: %q", buf.String())
	}
}

func TestPrintTable_WithFindings(t *testing.T) {
	var buf bytes.Buffer
	fs := []types.Finding{{Path: "a.txt", Line: 1, Match: "jane.doe@example.com", Rule: "email", Severity: types.SevMed}}
	PrintTable(&buf, fs, PrintOptions{NoColor: true})
	out := buf.String()
	// Should contain table elements
	if !strings.Contains(out, "SEVERITY") {
		t.Fatalf("expected table header with SEVERITY; got: %q", out)
	}
	if !strings.Contains(out, "email") {
		t.Fatalf("expected rule in table; got: %q", out)
	}
	if !strings.Contains(out, "│") {
		t.Fatalf("expected table borders; got: %q", out)
	}
}

func TestPrintTable_NoFindings_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, nil, PrintOptions{Duration: 1200 * time.Millisecond, FilesScanned: 10})
	out := buf.String()
	if !strings.Contains(out, "No PII found") {
		t.Fatalf("expected friendly no-findings message; got: %q", out)
	}
	if !strings.Contains(out, "Files scanned: 10") {
		t.Fatalf("expected footer with files scanned; got: %q", out)
	}
}

func TestMaskValue(t *testing.T) {
	if got := maskValue("short"); got != "********" {
		t.Fatalf("maskValue(short) = %q", got)
	}
	if got := maskValue("123-45-6789"); got != "123-…6789" {
		t.Fatalf("maskValue = %q", got)
	}
}
