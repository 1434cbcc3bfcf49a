package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/veilscan/veilscan/internal/report"
	"github.com/veilscan/veilscan/internal/types"
)

// Run starts the review UI over fresh findings. Baselined findings are
// marked rather than hidden so reviewers see the full picture.
func Run(findings []types.Finding, base report.Baseline, rescanFunc func() ([]types.Finding, error)) error {
	m := NewModel(findings, base, rescanFunc)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running review UI: %w", err)
	}
	return nil
}

// RunCached starts the review UI over a previous scan's saved results.
func RunCached(findings []types.Finding, base report.Baseline, rescanFunc func() ([]types.Finding, error), timestamp time.Time) error {
	m := NewModel(findings, base, rescanFunc)
	m.viewingCached = true
	m.lastScanTime = timestamp
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running review UI: %w", err)
	}
	return nil
}
