package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/veilscan/veilscan/internal/files"
	"github.com/veilscan/veilscan/internal/report"
	"github.com/veilscan/veilscan/internal/types"
)

type statusMsg string

// baselineFile is where the review UI reads and writes accepted findings.
const baselineFile = "veilscan.baseline.json"

func (m Model) getSelectedFinding() *types.Finding {
	displayFindings := m.getDisplayFindings()
	idx := m.table.Cursor()
	if idx >= 0 && idx < len(displayFindings) {
		return &displayFindings[idx]
	}
	return nil
}

func (m Model) ignoreFile() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return nil
	}

	// Members of archives are not walkable paths; ignore the enclosing
	// artifact instead.
	pattern := f.Path
	if i := strings.Index(pattern, "::"); i >= 0 {
		pattern = pattern[:i]
	}

	if err := files.AppendIgnore(".", pattern); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Error updating %s: %v", files.IgnoreFileName, err)) }
	}

	return func() tea.Msg { return statusMsg(fmt.Sprintf("Added %s to %s", pattern, files.IgnoreFileName)) }
}

// writeBaseline serializes the item set directly. report.SaveBaseline
// regenerates from findings, which would drop manually added keys.
func writeBaseline(base report.Baseline) error {
	buf, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(baselineFile, buf, 0644)
}

func (m *Model) addToBaseline() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return nil
	}

	base, err := report.LoadBaseline(baselineFile)
	if err != nil {
		base = report.Baseline{Items: map[string]bool{}}
	}

	key := f.Path + "|" + f.Rule + "|" + f.Match
	if base.Items[key] {
		return func() tea.Msg { return statusMsg("Finding already baselined") }
	}
	base.Items[key] = true

	if err := writeBaseline(base); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Error writing baseline: %v", err)) }
	}

	m.baselinedSet[key] = true

	idx := m.table.Cursor()
	rows := m.table.Rows()
	if idx >= 0 && idx < len(rows) {
		rows[idx][0] = "(b) " + severityText(f.Severity)
		m.table.SetRows(rows)
	}

	return func() tea.Msg { return statusMsg("Added finding to baseline") }
}

func (m *Model) removeFromBaseline() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return nil
	}

	key := f.Path + "|" + f.Rule + "|" + f.Match
	if !m.baselinedSet[key] {
		return func() tea.Msg { return statusMsg("Finding is not baselined") }
	}

	base, err := report.LoadBaseline(baselineFile)
	if err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Error loading baseline: %v", err)) }
	}

	delete(base.Items, key)

	if err := writeBaseline(base); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Error writing baseline: %v", err)) }
	}

	delete(m.baselinedSet, key)

	idx := m.table.Cursor()
	rows := m.table.Rows()
	if idx >= 0 && idx < len(rows) {
		rows[idx][0] = severityText(f.Severity)
		m.table.SetRows(rows)
	}

	return func() tea.Msg { return statusMsg("Removed finding from baseline") }
}

// copyPathToClipboard copies the current finding's file path. The matched
// value itself is never copied.
func (m Model) copyPathToClipboard() tea.Cmd {
	f := m.getSelectedFinding()
	if f == nil {
		return func() tea.Msg { return statusMsg("No finding selected") }
	}

	if err := clipboard.WriteAll(f.Path); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}

	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied: %s", f.Path)) }
}
