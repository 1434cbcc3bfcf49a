package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/veilscan/veilscan/internal/types"
)

// PrintOptions controls finding output. Matched text is masked unless
// ShowMatches is set.
type PrintOptions struct {
	NoColor      bool
	ShowMatches  bool
	Duration     time.Duration
	FilesScanned int
}

// PrintText writes findings as flat lines, one per finding, with a
// severity summary footer.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No PII found ✅")
	} else {
		maxRule := 8
		for _, f := range findings {
			if l := len(f.Rule); l > maxRule {
				maxRule = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			sev := string(f.Severity)
			if !opts.NoColor {
				sev = colorSeverity(f.Severity)
			}
			fmt.Fprintf(w, "%-6s %-*s %s  %s\n", sev, maxRule, f.Rule, location(f), displayValue(f, opts))
		}
	}
	footer(w, findings, opts)
}

// PrintTable writes findings as a bordered table. Severity coloring is
// skipped in table mode so cell widths stay stable.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) {
	sortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No PII found ✅")
		footer(w, findings, opts)
		return
	}
	table := tablewriter.NewTable(w)
	table.Header("SEVERITY", "RULE", "LOCATION", "MATCH")
	for _, f := range findings {
		_ = table.Append([]string{string(f.Severity), f.Rule, location(f), displayValue(f, opts)})
	}
	_ = table.Render()
	footer(w, findings, opts)
}

func sortFindings(findings []types.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Path == findings[j].Path {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Path < findings[j].Path
	})
}

func location(f types.Finding) string {
	loc := fmt.Sprintf("%s:%d", f.Path, f.Line)
	if f.Context != "" {
		loc += " " + f.Context
	}
	return loc
}

func displayValue(f types.Finding, opts PrintOptions) string {
	if opts.ShowMatches {
		return f.Match
	}
	return maskValue(f.Match)
}

func footer(w io.Writer, findings []types.Finding, opts PrintOptions) {
	high, med, low := 0, 0, 0
	for _, f := range findings {
		switch f.Severity {
		case types.SevHigh:
			high++
		case types.SevMed:
			med++
		default:
			low++
		}
	}
	if opts.Duration > 0 || opts.FilesScanned > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Findings: %d (high: %d, medium: %d, low: %d)\n", len(findings), high, med, low)
		if opts.Duration > 0 {
			fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
		}
		if opts.FilesScanned > 0 {
			fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
		}
	}
}

func maskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

func colorSeverity(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "\x1b[31mhigh\x1b[0m" // red
	case types.SevMed:
		return "\x1b[33mmedium\x1b[0m" // yellow
	default:
		return "\x1b[36mlow\x1b[0m" // cyan
	}
}
