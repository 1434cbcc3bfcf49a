package veilscan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/engine"
	"github.com/veilscan/veilscan/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage the accepted-findings baseline",
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Accept all current findings into the baseline",
		RunE: func(_ *cobra.Command, _ []string) error {
			abs, _ := filepath.Abs(".")
			cfg := engine.Config{Root: abs, Threads: flagThreads, DefaultExcludes: flagDefaultExcludes}
			results, err := engine.Scan(cfg)
			if err != nil {
				return err
			}
			if err := report.SaveBaseline(baselineFileName, results); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Baseline updated with %d findings.\n", len(results))
			return nil
		},
	}

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
