package veilscan

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagJSON            bool
	flagSARIF           bool
	flagThreads         int
	flagFailOn          string
	flagNoColor         bool
	flagMinPriority     int
	flagDryRun          bool
	flagNoCache         bool
	flagDefaultExcludes bool
	flagNoUpdateCheck   bool
	flagVerbose         bool

	version = "0.1.0"
)

// logger carries diagnostic output. Primary human output stays on plain
// stderr prints; the logger surfaces the noisy detail behind --verbose.
var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

// rootCmd is the base Cobra command for the veilscan CLI.
var rootCmd = &cobra.Command{
	Use:           "veilscan",
	Short:         "Find and redact PII in your repo",
	Long:          "Veilscan scans your working tree, staged changes, diffs, history, and data exports for personally identifiable information, and can redact what it finds.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagVerbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the veilscan CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "medium", "fail on low|medium|high")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().IntVar(&flagMinPriority, "min-priority", 0, "only show findings from rules with priority >= value")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "show what would be scanned without opening files")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable incremental scan cache")
	rootCmd.PersistentFlags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (node_modules, dist, images, etc.)")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log rule diagnostics and skipped work to stderr")
}
