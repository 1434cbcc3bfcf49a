package veilscan

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/rules"
)

// gendocs regenerates the rule table in README.md between the markers
// <!-- BEGIN:RULES --> and <!-- END:RULES -->.
func init() {
	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Regenerate the README rule table",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := "README.md"
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			start := []byte("<!-- BEGIN:RULES -->")
			end := []byte("<!-- END:RULES -->")
			i := bytes.Index(b, start)
			j := bytes.Index(b, end)
			if i < 0 || j < 0 || j <= i {
				return fmt.Errorf("markers not found in README.md")
			}

			// Catalog order is display order; it mirrors `veilscan rules`.
			var out strings.Builder
			out.WriteString("\n| Rule | Severity | Priority | Validator | Description | Example |\n")
			out.WriteString("|------|----------|----------|-----------|-------------|---------|\n")
			for _, s := range rules.Builtins() {
				validator := s.Validator
				if validator == "" {
					validator = "-"
				}
				fmt.Fprintf(&out, "| %s | %s | %d | %s | %s | `%s` |\n",
					s.Name, s.Severity, s.Priority, validator, s.Description, s.Example)
			}

			var nb bytes.Buffer
			nb.Write(b[:i])
			nb.Write(start)
			nb.WriteString("\n")
			nb.WriteString(out.String())
			nb.Write(end)
			nb.Write(b[j+len(end):])
			return os.WriteFile(path, nb.Bytes(), 0644)
		},
	}
	rootCmd.AddCommand(cmd)
}
