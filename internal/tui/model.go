package tui

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/veilscan/veilscan/internal/report"
	"github.com/veilscan/veilscan/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	sevHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// severityText returns plain text for severity (ANSI codes break table truncation).
func severityText(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "HIGH"
	case types.SevMed:
		return "MED"
	case types.SevLow:
		return "LOW"
	default:
		return string(s)
	}
}

func isBaselined(f types.Finding, baselinedSet map[string]bool) bool {
	if baselinedSet == nil {
		return false
	}
	key := f.Path + "|" + f.Rule + "|" + f.Match
	return baselinedSet[key]
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// Model is the review UI state: a findings table on top, a detail pane
// below, and a status bar.
type Model struct {
	table    table.Model
	viewport viewport.Model
	spinner  spinner.Model

	findings         []types.Finding
	filteredFindings []types.Finding // findings after filter applied (nil = no filter)
	filteredIndices  []int           // maps filtered index to original findings index
	baselinedSet     map[string]bool // keys of baselined findings

	searchMode     bool            // true when the filter input is active
	searchInput    textinput.Model // text input for the filter
	searchQuery    string          // current active filter query
	severityFilter types.Severity  // filter by severity ("" = no filter)

	prefs        Prefs // persisted display preferences
	contextLines int   // lines of file context around the finding

	rescanFunc func() ([]types.Finding, error) // callback to re-run the scan

	quitting      bool
	ready         bool // terminal dimensions are known
	scanning      bool // rescan in progress
	showEmpty     bool // nothing to display
	showHelp      bool // help overlay is up
	viewingCached bool // showing a previous scan's saved results

	lastScanTime  time.Time
	width         int
	height        int
	statusMessage string
	statusTimeout *time.Time // when to fall back to the default status line
}

// NewModel initializes the review model. Findings already in the baseline
// are marked, not hidden.
func NewModel(findings []types.Finding, base report.Baseline, rescanFunc func() ([]types.Finding, error)) Model {
	baselinedSet := make(map[string]bool)
	for key := range base.Items {
		baselinedSet[key] = true
	}

	columns := []table.Column{
		{Title: "Sev", Width: 8},
		{Title: "Rule", Width: 16},
		{Title: "Path", Width: 40},
		{Title: "Match", Width: 35},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)

	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)

	s.Cell = lipgloss.NewStyle().
		Padding(0, 1)

	t.SetStyles(s)

	// Line spinner avoids Braille characters that render poorly on some terminals
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	ti := textinput.New()
	ti.Placeholder = "Filter by path, rule, or match..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	m := Model{
		table:        t,
		spinner:      sp,
		findings:     findings,
		baselinedSet: baselinedSet,
		rescanFunc:   rescanFunc,
		searchInput:  ti,
		prefs:        LoadPrefs(),
		contextLines: 3,
		showEmpty:    len(findings) == 0,
		lastScanTime: time.Now(),
	}
	m.rebuildTableRows()

	newCount := 0
	for _, f := range findings {
		if !isBaselined(f, baselinedSet) {
			newCount++
		}
	}
	switch {
	case len(findings) == 0:
		m.statusMessage = m.defaultStatus()
	case newCount == 0:
		m.statusMessage = fmt.Sprintf("Showing %d baselined findings | q: quit | ?: help | r: rescan", len(findings))
	case newCount < len(findings):
		m.statusMessage = fmt.Sprintf("%d new, %d baselined | q: quit | ?: help | i: ignore | b: baseline", newCount, len(findings)-newCount)
	default:
		m.statusMessage = m.defaultStatus()
	}

	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) defaultStatus() string {
	if m.showEmpty {
		return "q: quit | r: rescan"
	}
	return "q: quit | ?: help | j/k: navigate | r: rescan | i: ignore | b: baseline | m: mask"
}

func (m *Model) setStatus(text string, d time.Duration) {
	t := time.Now().Add(d)
	m.statusTimeout = &t
	m.statusMessage = text
}

func (m *Model) rescan() tea.Cmd {
	return func() tea.Msg {
		if m.rescanFunc == nil {
			return statusMsg("Rescan not available")
		}

		newFindings, err := m.rescanFunc()
		if err != nil {
			return statusMsg(fmt.Sprintf("Scan error: %v", err))
		}

		return findingsMsg(newFindings)
	}
}

type findingsMsg []types.Finding

func (m *Model) applyFilters() {
	hasSearchFilter := m.searchQuery != ""
	hasSeverityFilter := m.severityFilter != ""

	if !hasSearchFilter && !hasSeverityFilter {
		m.filteredFindings = nil
		m.filteredIndices = nil
		m.rebuildTableRows()
		return
	}

	var filtered []types.Finding
	var indices []int
	query := strings.ToLower(m.searchQuery)

	for i, f := range m.findings {
		if hasSeverityFilter && f.Severity != m.severityFilter {
			continue
		}

		if hasSearchFilter {
			pathMatch := strings.Contains(strings.ToLower(f.Path), query)
			ruleMatch := strings.Contains(strings.ToLower(f.Rule), query)
			matchMatch := strings.Contains(strings.ToLower(f.Match), query)
			if !pathMatch && !ruleMatch && !matchMatch {
				continue
			}
		}

		filtered = append(filtered, f)
		indices = append(indices, i)
	}

	m.filteredFindings = filtered
	m.filteredIndices = indices
	m.rebuildTableRows()
}

func (m *Model) clearFilters() {
	m.searchQuery = ""
	m.severityFilter = ""
	m.searchInput.SetValue("")
	m.filteredFindings = nil
	m.filteredIndices = nil
	m.rebuildTableRows()
}

func (m *Model) displayMatch(f types.Finding) string {
	if m.prefs.MaskMatches {
		return maskMatch(f.Match)
	}
	return f.Match
}

func (m *Model) rebuildTableRows() {
	findings := m.getDisplayFindings()
	rows := make([]table.Row, len(findings))
	for i, f := range findings {
		sev := severityText(f.Severity)
		if isBaselined(f, m.baselinedSet) {
			sev = "(b) " + sev
		}
		rows[i] = table.Row{sev, f.Rule, f.Path, m.displayMatch(f)}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(findings) {
		m.table.SetCursor(0)
	}
	m.showEmpty = len(findings) == 0
	m.updateViewportContent()
}

func (m *Model) getDisplayFindings() []types.Finding {
	if m.filteredFindings != nil {
		return m.filteredFindings
	}
	return m.findings
}

func (m *Model) getOriginalIndex(displayIdx int) int {
	if m.filteredIndices != nil {
		if displayIdx >= 0 && displayIdx < len(m.filteredIndices) {
			return m.filteredIndices[displayIdx]
		}
		return -1
	}
	return displayIdx
}

// jumpToNextSeverity finds the next finding with the given severity
// (direction: 1=forward, -1=backward), wrapping around.
func (m *Model) jumpToNextSeverity(severity types.Severity, direction int) bool {
	displayFindings := m.getDisplayFindings()
	if len(displayFindings) == 0 {
		return false
	}

	current := m.table.Cursor()
	n := len(displayFindings)

	for i := 1; i <= n; i++ {
		idx := (current + direction*i + n) % n
		if displayFindings[idx].Severity == severity {
			m.table.SetCursor(idx)
			return true
		}
	}
	return false
}

// toggleMask flips match masking and persists the choice.
func (m *Model) toggleMask() {
	m.prefs.MaskMatches = !m.prefs.MaskMatches
	_ = SavePrefs(m.prefs)
	m.rebuildTableRows()
}

func (m *Model) expandContext() {
	if m.contextLines < 20 {
		m.contextLines += 2
		if m.contextLines > 20 {
			m.contextLines = 20
		}
		m.updateViewportContent()
	}
}

func (m *Model) contractContext() {
	if m.contextLines > 1 {
		m.contextLines -= 2
		if m.contextLines < 1 {
			m.contextLines = 1
		}
		m.updateViewportContent()
	}
}

func readFileContext(path string, targetLine int, contextLines int) ([]string, int, error) {
	if strings.Contains(path, "::") {
		return nil, 0, fmt.Errorf("virtual path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	startLine := targetLine - contextLines
	if startLine < 1 {
		startLine = 1
	}
	endLine := targetLine + contextLines

	var lines []string
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines, startLine, scanner.Err()
}

// contextFilename strips the artifact prefix from virtual paths so the
// lexer match runs on the inner file name.
func contextFilename(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

func highlightCode(code string, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	err = formatter.Format(&buf, style, iterator)
	if err != nil {
		return code
	}

	return buf.String()
}

func highlightLine(line string, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return line // no highlighting for unknown file types
	}

	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}

	result := buf.String()
	result = strings.TrimSuffix(result, "\n")
	return result
}

func (m *Model) updateViewportContent() {
	displayFindings := m.getDisplayFindings()
	if len(displayFindings) == 0 || !m.ready {
		m.viewport.SetContent("")
		return
	}

	idx := m.table.Cursor()
	if idx >= 0 && idx < len(displayFindings) {
		m.updateViewportContentForFinding(displayFindings[idx])
	}
}

func (m *Model) updateViewportContentForFinding(f types.Finding) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s\n\n", titleStyle.Render("Finding Details")))

	if isBaselined(f, m.baselinedSet) {
		baselineStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)
		b.WriteString(baselineStyle.Render("BASELINED: This finding is known/accepted. Press 'U' to remove from baseline."))
		b.WriteString("\n\n")
	}

	isVirtual := strings.Contains(f.Path, "::")
	if isVirtual {
		virtualStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Italic(true)
		b.WriteString(virtualStyle.Render("VIRTUAL FILE: This finding is inside an archive or container image."))
		b.WriteString("\n\n")

		parts := strings.Split(f.Path, "::")
		if len(parts) >= 2 {
			b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Artifact:"), parts[0]))
			if len(parts) == 2 {
				b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("File:"), parts[1]))
			} else {
				b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Layer:"), parts[1]))
				b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("File:"), strings.Join(parts[2:], "::")))
			}
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Path:"), f.Path))
		}
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Path:"), f.Path))
	}

	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Rule:"), f.Rule))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Severity:"), f.Severity))
	b.WriteString(fmt.Sprintf("%s %d\n", keyStyle.Render("Line:"), f.Line))
	if f.Column > 0 {
		b.WriteString(fmt.Sprintf("%s %d\n", keyStyle.Render("Column:"), f.Column))
	}
	if f.Context != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Key:"), f.Context))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Match:"), m.displayMatch(f)))

	if m.prefs.MaskMatches {
		// File context would reprint the value, so it stays hidden too.
		hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("Matches are masked. Press 'm' to reveal values and file context."))
		b.WriteString("\n")
		m.viewport.SetContent(b.String())
		return
	}

	contextHint := fmt.Sprintf(" (+/- to expand/contract, showing %d lines)", m.contextLines*2+1)
	b.WriteString(fmt.Sprintf("\n%s%s\n",
		keyStyle.Render("Context:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(contextHint)))

	lines, startLine, err := readFileContext(f.Path, f.Line, m.contextLines)
	if err == nil && len(lines) > 0 {
		lineNumStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		currentLineStyle := lipgloss.NewStyle().Background(lipgloss.Color("236"))
		filename := contextFilename(f.Path)

		for i, line := range lines {
			lineNum := startLine + i
			lineNumStr := lineNumStyle.Render(fmt.Sprintf("%4d ", lineNum))
			highlightedLine := highlightLine(line, filename)

			if lineNum == f.Line {
				if f.Match != "" {
					highlightedLine = strings.ReplaceAll(highlightedLine, f.Match, matchStyle.Render(f.Match))
				}
				b.WriteString(lineNumStr + currentLineStyle.Render(highlightedLine) + "\n")
			} else {
				b.WriteString(lineNumStr + highlightedLine + "\n")
			}
		}
	} else {
		// Virtual paths cannot be reopened; show the matched text itself.
		snippet := highlightCode(f.Match, contextFilename(f.Path))
		snippet = strings.ReplaceAll(snippet, f.Match, matchStyle.Render(f.Match))
		b.WriteString(snippet)
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		if m.searchMode {
			switch msg.String() {
			case "enter":
				m.searchQuery = m.searchInput.Value()
				m.searchMode = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searchMode = false
				m.searchInput.Blur()
				m.searchInput.SetValue(m.searchQuery)
				m.applyFilters()
				return m, nil
			default:
				m.searchInput, cmd = m.searchInput.Update(msg)
				m.searchQuery = m.searchInput.Value()
				m.applyFilters()
				return m, cmd
			}
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "/":
			if len(m.findings) > 0 {
				m.searchMode = true
				m.searchInput.SetValue(m.searchQuery)
				m.searchInput.Focus()
				return m, textinput.Blink
			}
		case "1":
			m.severityFilter = types.SevHigh
			m.applyFilters()
			m.setStatus("Showing HIGH severity only (Esc to clear)", 3*time.Second)
			return m, nil
		case "2":
			m.severityFilter = types.SevMed
			m.applyFilters()
			m.setStatus("Showing MED severity only (Esc to clear)", 3*time.Second)
			return m, nil
		case "3":
			m.severityFilter = types.SevLow
			m.applyFilters()
			m.setStatus("Showing LOW severity only (Esc to clear)", 3*time.Second)
			return m, nil
		case "esc":
			if m.searchQuery != "" || m.severityFilter != "" {
				m.clearFilters()
				m.setStatus("Filters cleared", 3*time.Second)
				return m, nil
			}
		case "n": // next HIGH
			if !m.showEmpty {
				if m.jumpToNextSeverity(types.SevHigh, 1) {
					m.updateViewportContent()
				} else {
					m.setStatus("No more HIGH findings", 2*time.Second)
				}
				return m, nil
			}
		case "N": // prev HIGH
			if !m.showEmpty {
				if m.jumpToNextSeverity(types.SevHigh, -1) {
					m.updateViewportContent()
				} else {
					m.setStatus("No more HIGH findings", 2*time.Second)
				}
				return m, nil
			}
		case "m":
			if len(m.findings) > 0 {
				m.toggleMask()
				if m.prefs.MaskMatches {
					m.setStatus("Matches masked", 2*time.Second)
				} else {
					m.setStatus("Matches revealed (m to mask again)", 2*time.Second)
				}
				return m, nil
			}
		case "y": // copy path
			if !m.showEmpty {
				return m, m.copyPathToClipboard()
			}
		case "i":
			if !m.showEmpty {
				return m, m.ignoreFile()
			}
		case "b":
			if !m.showEmpty {
				return m, m.addToBaseline()
			}
		case "U": // unbaseline
			if !m.showEmpty {
				return m, m.removeFromBaseline()
			}
		case "+", "=":
			if !m.showEmpty {
				m.expandContext()
				m.setStatus(fmt.Sprintf("Context: %d lines", m.contextLines*2+1), 2*time.Second)
				return m, nil
			}
		case "-", "_":
			if !m.showEmpty {
				m.contractContext()
				m.setStatus(fmt.Sprintf("Context: %d lines", m.contextLines*2+1), 2*time.Second)
				return m, nil
			}
		case "r":
			if m.rescanFunc == nil {
				m.setStatus("Rescan not available", 3*time.Second)
				return m, nil
			}
			if !m.scanning {
				m.scanning = true
				m.statusMessage = "Rescanning..."
				return m, m.rescan()
			}
		case "?", "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "down", "j", "up", "k":
			if !m.showEmpty {
				m.table, cmd = m.table.Update(msg)
				m.updateViewportContent()
				return m, cmd
			}
		case "ctrl+d":
			if !m.showEmpty {
				halfPage := m.table.Height() / 2
				if halfPage < 1 {
					halfPage = 1
				}
				m.table.MoveDown(halfPage)
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+u":
			if !m.showEmpty {
				halfPage := m.table.Height() / 2
				if halfPage < 1 {
					halfPage = 1
				}
				m.table.MoveUp(halfPage)
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+f", "pgdown":
			if !m.showEmpty {
				m.table.MoveDown(m.table.Height())
				m.updateViewportContent()
				return m, nil
			}
		case "ctrl+b", "pgup":
			if !m.showEmpty {
				m.table.MoveUp(m.table.Height())
				m.updateViewportContent()
				return m, nil
			}
		case "g", "home":
			if !m.showEmpty {
				m.table.GotoTop()
				m.updateViewportContent()
				return m, nil
			}
		case "G", "end":
			if !m.showEmpty {
				m.table.GotoBottom()
				m.updateViewportContent()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		usableWidth := m.width - 10
		sevWidth := 8
		ruleWidth := 16
		remainingWidth := usableWidth - sevWidth - ruleWidth
		pathWidth := int(float64(remainingWidth) * 0.45)
		matchWidth := remainingWidth - pathWidth
		if pathWidth < 25 {
			pathWidth = 25
		}
		if matchWidth < 25 {
			matchWidth = 25
		}

		cols := m.table.Columns()
		cols[0].Width = sevWidth
		cols[1].Width = ruleWidth
		cols[2].Width = pathWidth
		cols[3].Width = matchWidth
		m.table.SetColumns(cols)

		statsHeaderHeight := 1
		availableHeight := m.height - lipgloss.Height(statusStyle.Render("")) - statsHeaderHeight
		tableHeight := int(float64(availableHeight) * 0.45)
		viewportHeight := availableHeight - tableHeight - detailPaneBorderStyle.GetVerticalFrameSize() - 1

		m.table.SetWidth(m.width)
		m.table.SetHeight(tableHeight)

		if m.viewport.Height == 0 {
			m.viewport = viewport.New(m.width, viewportHeight)
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()
		statusStyle = statusStyle.Width(m.width)

	case findingsMsg:
		m.findings = msg
		m.clearFilters()
		m.scanning = false
		m.viewingCached = false
		m.lastScanTime = time.Now()
		if m.showEmpty {
			m.table.SetCursor(0)
			m.setStatus("Rescan complete, no PII found", 5*time.Second)
		} else {
			m.setStatus(fmt.Sprintf("Rescan complete, %d findings", len(m.findings)), 5*time.Second)
		}

	case statusMsg:
		m.setStatus(string(msg), 3*time.Second)

	case spinner.TickMsg:
		var spinCmd tea.Cmd
		m.spinner, spinCmd = m.spinner.Update(msg)
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			m.statusMessage = m.defaultStatus()
		}
		return m, spinCmd
	}

	if !m.quitting && !m.showEmpty {
		shouldUpdate := true
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			key := keyMsg.String()
			if key == "down" || key == "j" || key == "up" || key == "k" {
				shouldUpdate = false
			}
		}
		if shouldUpdate {
			m.table, cmd = m.table.Update(msg)
		}
	}

	m.updateViewportContent()
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.scanning {
		msgContent := fmt.Sprintf("%s  Rescanning...\n\nPlease wait", m.spinner.View())
		popupBox := popupStyle.
			Width(55).
			Align(lipgloss.Center).
			Render(msgContent)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupBox)
	}

	displayFindings := m.getDisplayFindings()
	var highCount, medCount, lowCount int
	for _, f := range displayFindings {
		switch f.Severity {
		case types.SevHigh:
			highCount++
		case types.SevMed:
			medCount++
		case types.SevLow:
			lowCount++
		}
	}

	var statsContent string
	if len(m.findings) == 0 {
		statsContent = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[OK] No PII detected")
	} else {
		var filterInfo string
		if m.searchQuery != "" || m.severityFilter != "" {
			var parts []string
			if m.searchQuery != "" {
				parts = append(parts, fmt.Sprintf("filter:'%s'", m.searchQuery))
			}
			if m.severityFilter != "" {
				parts = append(parts, fmt.Sprintf("sev:%s", severityText(m.severityFilter)))
			}
			filterInfo = fmt.Sprintf("  [FILTER: %s]", strings.Join(parts, ", "))
		}

		var maskInfo string
		if m.prefs.MaskMatches {
			maskInfo = "  [masked]"
		}

		if m.filteredFindings != nil {
			statsContent = fmt.Sprintf(
				"Showing: %d/%d  |  %s %-4d  |  %s %-4d  |  %s %-4d%s%s",
				len(displayFindings),
				len(m.findings),
				sevHighStyle.Render("High:"),
				highCount,
				sevMedStyle.Render("Med:"),
				medCount,
				sevLowStyle.Render("Low:"),
				lowCount,
				filterInfo,
				maskInfo,
			)
		} else {
			statsContent = fmt.Sprintf(
				"Total: %-4d  |  %s %-4d  |  %s %-4d  |  %s %-4d%s%s",
				len(m.findings),
				sevHighStyle.Render("High:"),
				highCount,
				sevMedStyle.Render("Med:"),
				medCount,
				sevLowStyle.Render("Low:"),
				lowCount,
				filterInfo,
				maskInfo,
			)
		}
	}

	statsHeader := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 2).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("237")).
		Render(statsContent)

	tableRender := tableBorderStyle.
		Width(m.width).
		Height(m.table.Height()).
		Render(m.table.View())

	var detailContent string
	if len(displayFindings) == 0 {
		var emptyMsg string
		if len(m.findings) == 0 {
			emptyMsg = "No findings to review.\n\nPress 'r' to rescan\nPress '?' for help"
		} else {
			emptyMsg = "No findings match filter.\n\nPress 'Esc' to clear filter"
		}
		detailContent = lipgloss.Place(
			m.width,
			m.viewport.Height,
			lipgloss.Center,
			lipgloss.Center,
			emptyTextStyle.Render(emptyMsg),
		)
	} else {
		detailContent = m.viewport.View()
	}

	detailRender := detailPaneBorderStyle.
		Width(m.width).
		Height(m.viewport.Height).
		Render(detailContent)

	var timeInfo string
	if m.viewingCached {
		timeInfo = fmt.Sprintf("Cached: %s", m.lastScanTime.Format("Jan 2, 15:04"))
	} else if !m.lastScanTime.IsZero() {
		timeInfo = fmt.Sprintf("Scanned: %s ago", formatDuration(time.Since(m.lastScanTime)))
	}

	statusLeft := m.statusMessage
	statusRight := timeInfo
	leftWidth := lipgloss.Width(statusLeft)
	rightWidth := lipgloss.Width(statusRight)
	availWidth := m.width - 4
	spacer := availWidth - leftWidth - rightWidth
	if spacer < 1 {
		spacer = 1
	}

	var statusContent string
	if timeInfo != "" {
		statusContent = statusLeft + strings.Repeat(" ", spacer) + statusRight
	} else {
		statusContent = statusLeft
	}

	statusRender := statusStyle.
		Width(m.width).
		Padding(0, 2).
		Render(statusContent)

	var bottomBar string
	if m.searchMode {
		matchCount := len(m.getDisplayFindings())
		searchStatus := fmt.Sprintf(" (%d matches)", matchCount)
		searchBarStyle := lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1)
		bottomBar = searchBarStyle.Render(m.searchInput.View() + searchStatus)
	} else {
		bottomBar = statusRender
	}

	mainView := lipgloss.JoinVertical(lipgloss.Left,
		statsHeader,
		tableRender,
		detailRender,
		bottomBar,
	)

	if m.showHelp {
		helpTitleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
		sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
		keyColor := lipgloss.Color("10")
		descColor := lipgloss.Color("250")

		formatRow := func(key, desc string) string {
			keyStyled := lipgloss.NewStyle().Foreground(keyColor).Render(key)
			descStyled := lipgloss.NewStyle().Foreground(descColor).Render(desc)
			padding := 12 - len(key)
			if padding < 1 {
				padding = 1
			}
			return "  " + keyStyled + strings.Repeat(" ", padding) + descStyled
		}

		var lines []string
		lines = append(lines, helpTitleStyle.Render("Keyboard Shortcuts"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Navigation"))
		lines = append(lines, formatRow("j / k", "Move down / up"))
		lines = append(lines, formatRow("Ctrl+d/u", "Half-page down / up"))
		lines = append(lines, formatRow("Ctrl+f/b", "Full page down / up"))
		lines = append(lines, formatRow("g / G", "First / last row"))
		lines = append(lines, formatRow("n / N", "Next / prev HIGH finding"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Search & Filter"))
		lines = append(lines, formatRow("/", "Filter findings"))
		lines = append(lines, formatRow("1 / 2 / 3", "Filter HIGH / MED / LOW"))
		lines = append(lines, formatRow("Esc", "Clear filters"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Actions"))
		lines = append(lines, formatRow("m", "Mask / reveal matches"))
		lines = append(lines, formatRow("y", "Copy path to clipboard"))
		lines = append(lines, formatRow("i", "Ignore file"))
		lines = append(lines, formatRow("b / U", "Baseline / unbaseline"))
		lines = append(lines, formatRow("+ / -", "Expand / contract context"))
		lines = append(lines, formatRow("r", "Rescan"))
		lines = append(lines, "")
		lines = append(lines, sectionStyle.Render("Other"))
		lines = append(lines, formatRow("?", "Toggle help"))
		lines = append(lines, formatRow("q", "Quit"))
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true).
			Render("Press any key to close"))

		helpContent := lipgloss.JoinVertical(lipgloss.Left, lines...)
		helpBox := popupStyle.Width(44).Padding(1, 3).Render(helpContent)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, helpBox)
	}

	return mainView
}
