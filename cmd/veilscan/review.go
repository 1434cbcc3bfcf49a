package veilscan

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/cache"
	"github.com/veilscan/veilscan/internal/engine"
	"github.com/veilscan/veilscan/internal/report"
	"github.com/veilscan/veilscan/internal/tui"
	"github.com/veilscan/veilscan/internal/types"
)

func init() {
	var (
		path  string
		fresh bool
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review findings in an interactive terminal UI",
		Long: `Open the findings browser. Navigate with arrow keys, filter by severity
or rule, and accept findings into the baseline. Starts from the last
scan's cached results when available; press r inside the UI to rescan.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			abs, _ := filepath.Abs(path)
			base, _ := report.LoadBaseline(baselineFileName)

			rescan := func() ([]types.Finding, error) {
				findings, err := engine.Scan(engine.Config{
					Root:            abs,
					Threads:         flagThreads,
					DefaultExcludes: flagDefaultExcludes,
				})
				if err != nil {
					return nil, err
				}
				if err := cache.SaveResults(abs, findings); err != nil {
					logger.Debug("results cache", "err", err)
				}
				return findings, nil
			}

			if !fresh {
				if cached, err := cache.LoadResults(abs); err == nil {
					return tui.RunCached(cached.Findings, base, rescan, cached.Timestamp)
				}
			}
			findings, err := rescan()
			if err != nil {
				return fmt.Errorf("scan error: %w", err)
			}
			return tui.Run(findings, base, rescan)
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", ".", "path to scan")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "rescan instead of starting from cached results")
	rootCmd.AddCommand(cmd)
}
