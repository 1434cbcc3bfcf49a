package veilscan

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/rules"
)

func init() {
	var (
		table     bool
		rulesFile string
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active rule catalog",
		RunE: func(_ *cobra.Command, _ []string) error {
			set, err := rules.Default()
			if err != nil {
				return err
			}
			if rulesFile != "" {
				s, err := loadRulesSet(rulesFile, nil)
				if err != nil {
					return err
				}
				set = s
			}

			if flagJSON {
				specs := make([]rules.Spec, 0, set.Len())
				for _, r := range set.Rules() {
					specs = append(specs, rules.Spec{
						Name:        r.Name,
						Pattern:     r.Pattern.String(),
						Description: r.Description,
						Severity:    r.Severity,
						Priority:    r.Priority,
						MaxLen:      r.MaxLen,
						Validator:   r.ValidatorID,
						Example:     r.Example,
					})
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(specs)
			}

			if table {
				t := tablewriter.NewTable(os.Stdout)
				t.Header("NAME", "PRIORITY", "SEVERITY", "VALIDATOR", "DESCRIPTION", "EXAMPLE")
				for _, r := range set.Rules() {
					validator := r.ValidatorID
					if validator == "" {
						validator = "-"
					}
					_ = t.Append([]string{r.Name, fmt.Sprint(r.Priority), string(r.Severity), validator, r.Description, r.Example})
				}
				return t.Render()
			}

			for _, name := range set.Names() {
				fmt.Println(name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&table, "table", false, "show priorities, severities, and validators in a table")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rules file replacing or extending the catalog")
	rootCmd.AddCommand(cmd)
}
