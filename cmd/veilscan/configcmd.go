package veilscan

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/config"
	"github.com/veilscan/veilscan/internal/rules"
	"gopkg.in/yaml.v3"
)

var (
	cfgPreset          string
	cfgOutput          string
	cfgEnable          string
	cfgDisable         string
	cfgThreads         int
	cfgMaxBytes        int64
	cfgMinPriority     int
	cfgFailOn          string
	cfgNoColor         bool
	cfgDefaultExcludes bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .veilscan.yml with selected rules and options",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgPreset, "preset", "standard", "rule preset: minimal | standard | maximal")
	initCmd.Flags().StringVar(&cfgOutput, "output", ".veilscan.yml", "output file path")
	initCmd.Flags().StringVar(&cfgEnable, "enable", "", "comma-separated rule names to enable (overrides preset if set)")
	initCmd.Flags().StringVar(&cfgDisable, "disable", "", "comma-separated rule names to disable")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "worker threads (0=GOMAXPROCS)")
	initCmd.Flags().Int64Var(&cfgMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	initCmd.Flags().IntVar(&cfgMinPriority, "min-priority", 0, "drop findings from rules below this priority")
	initCmd.Flags().StringVar(&cfgFailOn, "fail-on", "medium", "fail threshold: low | medium | high | none")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().BoolVar(&cfgDefaultExcludes, "default-excludes", true, "enable default ignore patterns")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	// Determine enable set
	enable := strings.TrimSpace(cfgEnable)
	if enable == "" {
		switch strings.ToLower(cfgPreset) {
		case "minimal":
			enable = strings.Join([]string{
				// Government identifiers and payment data
				"ssn", "credit_card", "passport", "license",
				// Direct contact channels
				"email", "phone_us",
			}, ",")
		case "standard":
			// Everything except the two loose, low-priority rules that
			// match ordinary prose.
			var kept []string
			for _, n := range rules.BuiltinNames() {
				if n == "name" || n == "address" {
					continue
				}
				kept = append(kept, n)
			}
			enable = strings.Join(kept, ",")
		case "maximal":
			enable = strings.Join(rules.BuiltinNames(), ",")
		default:
			return fmt.Errorf("unknown preset %q (minimal | standard | maximal)", cfgPreset)
		}
	}

	fc := config.FileConfig{
		Include:         nil,
		Exclude:         nil,
		MaxBytes:        int64Ptr(cfgMaxBytes),
		Enable:          strPtr(enable),
		Disable:         optStrPtr(cfgDisable),
		Threads:         intPtr(cfgThreads),
		MinPriority:     intPtr(cfgMinPriority),
		FailOn:          strPtr(cfgFailOn),
		NoColor:         boolPtr(cfgNoColor),
		DefaultExcludes: boolPtr(cfgDefaultExcludes),
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput)
	return nil
}

func strPtr(s string) *string { return &s }
func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }
