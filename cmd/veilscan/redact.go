package veilscan

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/config"
	"github.com/veilscan/veilscan/internal/redact"
	"github.com/veilscan/veilscan/internal/scan"
	"github.com/veilscan/veilscan/internal/types"
)

func init() {
	var (
		placeholder string
		maskKeep    int
		inPlace     bool
		rulesFile   string
		enable      string
		disable     string
	)
	cmd := &cobra.Command{
		Use:   "redact [files...]",
		Short: "Rewrite text with PII replaced by placeholders",
		Long: `Redact PII from text. With no arguments, reads stdin and writes the
redacted text to stdout. With file arguments, prints each file's redacted
content to stdout, or rewrites the files when --in-place is set.

Redacting already-redacted text is a no-op, so the command is safe to run
twice over the same files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := resolveRuleSet(rulesFile, enable, disable)
			if err != nil {
				return err
			}

			var gcfg, lcfg config.FileConfig
			if c, err := config.LoadGlobal(); err == nil {
				gcfg = c
			}
			if wd, err := os.Getwd(); err == nil {
				if c, err := config.LoadLocal(wd); err == nil {
					lcfg = c
				}
			}

			var fn redact.PlaceholderFunc
			switch {
			case cmd.Flags().Changed("mask"):
				fn = redact.Mask(maskKeep, 0)
			default:
				if ph := pickString(placeholder, lcfg.Placeholder, gcfg.Placeholder); ph != "" {
					fn = func(types.Match) string { return ph }
				}
			}
			sc := scan.New(set)

			if len(args) == 0 {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				src := string(data)
				res := sc.Scan(src)
				_, err = io.WriteString(os.Stdout, redact.Text(src, res.Matches, fn))
				return err
			}

			for _, path := range args {
				if !inPlace {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("read %s: %w", path, err)
					}
					src := string(data)
					res := sc.Scan(src)
					if _, err := io.WriteString(os.Stdout, redact.Text(src, res.Matches, fn)); err != nil {
						return err
					}
					continue
				}
				if flagDryRun {
					would, err := redact.WouldChange(path, sc, fn)
					if err != nil {
						return err
					}
					if would {
						fmt.Println("(dry-run) would redact:", path)
					}
					continue
				}
				changed, err := redact.Apply(path, sc, fn)
				if err != nil {
					return err
				}
				if changed {
					fmt.Println("Redacted", path)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&placeholder, "placeholder", "", `replacement text (default "[REDACTED:<rule>]")`)
	cmd.Flags().IntVar(&maskKeep, "mask", 4, "star out matches, keeping the first N characters")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "rewrite files on disk instead of printing to stdout")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rules file replacing or extending the catalog")
	cmd.Flags().StringVar(&enable, "enable", "", "only run these rules (comma-separated names)")
	cmd.Flags().StringVar(&disable, "disable", "", "disable these rules (comma-separated names)")
	cmd.MarkFlagsMutuallyExclusive("placeholder", "mask")
	rootCmd.AddCommand(cmd)
}
