package veilscan

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/report"
	"github.com/veilscan/veilscan/internal/rules"
	"github.com/veilscan/veilscan/internal/scan"
	"github.com/veilscan/veilscan/internal/types"
)

func init() {
	cmd := &cobra.Command{
		Use:   "test-rule <name>",
		Short: "Run a single rule against provided text (stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]
			def, err := rules.Default()
			if err != nil {
				return err
			}
			set, err := def.Filter([]string{name}, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "unknown rule: %s\n", name)
				fmt.Fprintf(os.Stderr, "available: %s\n", strings.Join(rules.BuiltinNames(), ", "))
				os.Exit(2)
			}
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			src := string(data)
			res := scan.New(set).Scan(src)
			fs := make([]types.Finding, 0, len(res.Matches))
			for _, m := range res.Matches {
				line, col := lineCol(src, m.Start)
				fs = append(fs, types.Finding{
					Path:     "stdin",
					Line:     line,
					Column:   col,
					Rule:     m.Rule,
					Severity: m.Severity,
					Match:    m.Text,
					Start:    m.Start,
					End:      m.End,
				})
			}
			for _, d := range res.Diagnostics {
				fmt.Fprintf(os.Stderr, "diagnostic: rule %s: %s at %d\n", d.Rule, d.Kind, d.Offset)
			}
			// Matched text is the whole point here, so it stays unmasked.
			report.PrintTable(os.Stdout, fs, report.PrintOptions{ShowMatches: true})
			return nil
		},
	}
	cmd.Long = "Available rules: " + strings.Join(rules.BuiltinNames(), ", ")
	rootCmd.AddCommand(cmd)
}
