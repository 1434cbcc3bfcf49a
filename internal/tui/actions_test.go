package tui

import (
	"os"
	"strings"
	"testing"

	"github.com/veilscan/veilscan/internal/files"
	"github.com/veilscan/veilscan/internal/report"
	"github.com/veilscan/veilscan/internal/types"
)

func TestGetSelectedFinding(t *testing.T) {
	findings := []types.Finding{
		{Path: "a.go", Rule: "email", Match: "a@example.com"},
		{Path: "b.go", Rule: "ssn", Match: "123-45-6789"},
	}

	m := NewModel(findings, report.Baseline{}, nil)

	m.table.SetCursor(0)
	if f := m.getSelectedFinding(); f == nil || f.Path != "a.go" {
		t.Errorf("expected a.go at cursor 0, got %+v", f)
	}

	m.table.SetCursor(1)
	if f := m.getSelectedFinding(); f == nil || f.Path != "b.go" {
		t.Errorf("expected b.go at cursor 1, got %+v", f)
	}

	// The filtered view is what the cursor indexes into
	m.searchQuery = "b.go"
	m.applyFilters()
	m.table.SetCursor(0)
	if f := m.getSelectedFinding(); f == nil || f.Path != "b.go" {
		t.Errorf("expected b.go under filter, got %+v", f)
	}

	mEmpty := NewModel(nil, report.Baseline{}, nil)
	if f := mEmpty.getSelectedFinding(); f != nil {
		t.Errorf("expected nil for empty model, got %+v", f)
	}
}

func TestIgnoreFile(t *testing.T) {
	t.Chdir(t.TempDir())

	findings := []types.Finding{
		{Path: "exports/users.csv", Rule: "email", Match: "a@example.com"},
	}
	m := NewModel(findings, report.Baseline{}, nil)
	m.table.SetCursor(0)

	cmd := m.ignoreFile()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg := cmd(); !strings.Contains(string(msg.(statusMsg)), "exports/users.csv") {
		t.Errorf("unexpected status: %v", msg)
	}

	data, err := os.ReadFile(files.IgnoreFileName)
	if err != nil {
		t.Fatalf("ignore file not written: %v", err)
	}
	if !strings.Contains(string(data), "exports/users.csv") {
		t.Errorf("ignore file missing path: %q", data)
	}
}

func TestIgnoreFile_VirtualPathIgnoresArtifact(t *testing.T) {
	t.Chdir(t.TempDir())

	findings := []types.Finding{
		{Path: "export.zip::users.csv", Rule: "email", Match: "a@example.com"},
	}
	m := NewModel(findings, report.Baseline{}, nil)
	m.table.SetCursor(0)

	cmd := m.ignoreFile()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_ = cmd()

	data, err := os.ReadFile(files.IgnoreFileName)
	if err != nil {
		t.Fatalf("ignore file not written: %v", err)
	}
	if strings.Contains(string(data), "::") {
		t.Errorf("virtual member should not be written verbatim: %q", data)
	}
	if !strings.Contains(string(data), "export.zip") {
		t.Errorf("expected enclosing archive in ignore file: %q", data)
	}
}

func TestAddAndRemoveBaseline(t *testing.T) {
	t.Chdir(t.TempDir())

	findings := []types.Finding{
		{Path: "a.go", Rule: "email", Match: "a@example.com", Severity: types.SevMed},
	}
	m := NewModel(findings, report.Baseline{}, nil)
	m.table.SetCursor(0)

	cmd := m.addToBaseline()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if msg := cmd(); msg.(statusMsg) != "Added finding to baseline" {
		t.Errorf("unexpected status: %v", msg)
	}

	key := "a.go|email|a@example.com"
	if !m.baselinedSet[key] {
		t.Error("baselinedSet should contain the new key")
	}

	base, err := report.LoadBaseline(baselineFile)
	if err != nil {
		t.Fatalf("baseline not written: %v", err)
	}
	if !base.Items[key] {
		t.Errorf("baseline file missing key, got %+v", base.Items)
	}

	rows := m.table.Rows()
	if !strings.HasPrefix(rows[0][0], "(b) ") {
		t.Errorf("row should be marked baselined, got %q", rows[0][0])
	}

	// Adding again is a no-op
	if msg := m.addToBaseline()(); msg.(statusMsg) != "Finding already baselined" {
		t.Errorf("unexpected status: %v", msg)
	}

	// Remove restores both the set and the row
	if msg := m.removeFromBaseline()(); msg.(statusMsg) != "Removed finding from baseline" {
		t.Errorf("unexpected status: %v", msg)
	}
	if m.baselinedSet[key] {
		t.Error("key should be gone after removal")
	}

	base, err = report.LoadBaseline(baselineFile)
	if err != nil {
		t.Fatalf("baseline unreadable after removal: %v", err)
	}
	if base.Items[key] {
		t.Error("baseline file should no longer contain the key")
	}

	rows = m.table.Rows()
	if rows[0][0] != "MED" {
		t.Errorf("row mark should be cleared, got %q", rows[0][0])
	}
}

func TestRemoveFromBaseline_NotBaselined(t *testing.T) {
	t.Chdir(t.TempDir())

	findings := []types.Finding{
		{Path: "a.go", Rule: "email", Match: "a@example.com", Severity: types.SevMed},
	}
	m := NewModel(findings, report.Baseline{}, nil)
	m.table.SetCursor(0)

	if msg := m.removeFromBaseline()(); msg.(statusMsg) != "Finding is not baselined" {
		t.Errorf("unexpected status: %v", msg)
	}
}
