package veilscan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/audit"
	"github.com/veilscan/veilscan/internal/cache"
	"github.com/veilscan/veilscan/internal/config"
	"github.com/veilscan/veilscan/internal/engine"
	"github.com/veilscan/veilscan/internal/report"
	"github.com/veilscan/veilscan/internal/rules"
	"github.com/veilscan/veilscan/internal/types"
	"github.com/veilscan/veilscan/internal/update"
	"golang.org/x/term"
)

// baselineFileName is the repo-local list of accepted findings. The scan,
// baseline, and review commands all read and write the same file.
const baselineFileName = "veilscan.baseline.json"

var (
	flagPath         string
	flagStaged       bool
	flagHistory      int
	flagBase         string
	flagInclude      string
	flagExclude      string
	flagMaxBytes     int64
	flagEnable       string
	flagDisable      string
	flagRulesFile    string
	flagRulesMerge   bool
	flagUploadURL    string
	flagUploadToken  string
	flagNoUploadMeta bool
	flagTable        bool
	flagText         bool
	flagShowMatches  bool
	flagNoValidators bool
	flagNoStructured bool
	// deep scanning toggles and limits
	flagArchives        bool
	flagContainers      bool
	flagRegistryImages  []string
	flagMaxArchiveBytes int64
	flagMaxEntries      int
	flagMaxDepth        int
	flagScanTimeBudget  time.Duration
	flagArtifactBudget  time.Duration
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan files for PII",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "path to scan")
	cmd.Flags().BoolVar(&flagStaged, "staged", false, "scan staged changes")
	cmd.Flags().IntVar(&flagHistory, "history", 0, "scan last N commits (0=off)")
	cmd.Flags().StringVar(&flagBase, "base", "", "scan diff vs base branch (e.g. main)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	cmd.Flags().StringVar(&flagEnable, "enable", "", "only run these rules (comma-separated names)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "disable these rules (comma-separated names)")
	cmd.Flags().StringVar(&flagRulesFile, "rules", "", "YAML rules file replacing or extending the catalog")
	cmd.Flags().BoolVar(&flagRulesMerge, "rules-merge", false, "merge the rules file with the built-in catalog")
	cmd.Flags().StringVar(&flagUploadURL, "upload", "", "POST findings (JSON) to this URL after scan")
	cmd.Flags().StringVar(&flagUploadToken, "upload-token", "", "Bearer token for upload auth")
	cmd.Flags().BoolVar(&flagNoUploadMeta, "no-upload-metadata", false, "do not include repo/commit/branch in upload envelope")
	cmd.Flags().BoolVar(&flagTable, "table", false, "output in table format with borders (default)")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
	cmd.Flags().BoolVar(&flagShowMatches, "show-matches", false, "print matched text unmasked")
	cmd.Flags().BoolVar(&flagNoValidators, "no-validators", false, "match on patterns alone, skipping validators")
	cmd.Flags().BoolVar(&flagNoStructured, "no-structured", false, "disable JSON/YAML key-path context")
	// deep scanning flags
	cmd.Flags().BoolVar(&flagArchives, "archives", false, "enable deep scanning of archives (zip/tar/gz)")
	cmd.Flags().BoolVar(&flagContainers, "containers", false, "enable deep scanning of container tarballs and OCI layouts")
	cmd.Flags().StringSliceVar(&flagRegistryImages, "registry-image", nil, "scan a remote registry image (repeatable, e.g. gcr.io/proj/img:tag)")
	cmd.Flags().Int64Var(&flagMaxArchiveBytes, "max-archive-bytes", 32<<20, "max decompressed bytes per artifact before aborting")
	cmd.Flags().IntVar(&flagMaxEntries, "max-entries", 1000, "max entries per archive/container before aborting")
	cmd.Flags().IntVar(&flagMaxDepth, "max-depth", 2, "max recursion depth for nested archives")
	cmd.Flags().DurationVar(&flagScanTimeBudget, "scan-time-budget", 10*time.Second, "time budget per artifact (e.g., 10s)")
	cmd.Flags().DurationVar(&flagArtifactBudget, "artifact-total-budget", 0, "time budget across all artifacts (0=off)")
}

func runScan(cmd *cobra.Command, _ []string) error {
	abs, _ := filepath.Abs(flagPath)
	// Load configs: CLI > local > global
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(abs); err == nil {
		lcfg = c
	}

	// Rule catalog override: CLI > local > global
	var ruleSet *rules.Set
	if rulesPath := pickString(flagRulesFile, lcfg.RulesFile, gcfg.RulesFile); rulesPath != "" {
		var mergeOverride *bool
		switch {
		case cmd.Flags().Changed("rules-merge"):
			mergeOverride = &flagRulesMerge
		case lcfg.RulesMerge != nil:
			mergeOverride = lcfg.RulesMerge
		case gcfg.RulesMerge != nil:
			mergeOverride = gcfg.RulesMerge
		}
		set, err := loadRulesSet(rulesPath, mergeOverride)
		if err != nil {
			return err
		}
		ruleSet = set
	}

	// Color is dropped when requested or when stdout is not a terminal.
	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)
	if !noColor && !term.IsTerminal(int(os.Stdout.Fd())) {
		noColor = true
	}

	cfg := engine.Config{
		Root:                 abs,
		IncludeGlobs:         pickString(flagInclude, lcfg.Include, gcfg.Include),
		ExcludeGlobs:         pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		MaxBytes:             pickInt64Flag(cmd, "max-bytes", flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		ScanStaged:           flagStaged,
		HistoryCommits:       flagHistory,
		BaseBranch:           flagBase,
		Threads:              pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		EnableRules:          pickString(flagEnable, lcfg.Enable, gcfg.Enable),
		DisableRules:         pickString(flagDisable, lcfg.Disable, gcfg.Disable),
		MinPriority:          pickInt(flagMinPriority, lcfg.MinPriority, gcfg.MinPriority),
		DryRun:               flagDryRun,
		NoColor:              noColor,
		NoCache:              flagNoCache,
		DefaultExcludes:      flagDefaultExcludes,
		NoValidators:         pickBool(flagNoValidators, lcfg.NoValidators, gcfg.NoValidators),
		Structured:           !pickBool(flagNoStructured, lcfg.NoStructured, gcfg.NoStructured),
		Rules:                ruleSet,
		ScanArchives:         pickBool(flagArchives, lcfg.Archives, gcfg.Archives),
		ScanContainers:       pickBool(flagContainers, lcfg.Containers, gcfg.Containers),
		RegistryImages:       flagRegistryImages,
		MaxArchiveBytes:      pickInt64Flag(cmd, "max-archive-bytes", flagMaxArchiveBytes, lcfg.MaxArchiveBytes, gcfg.MaxArchiveBytes),
		MaxEntries:           pickIntFlag(cmd, "max-entries", flagMaxEntries, lcfg.MaxEntries, gcfg.MaxEntries),
		MaxDepth:             pickIntFlag(cmd, "max-depth", flagMaxDepth, lcfg.MaxDepth, gcfg.MaxDepth),
		ScanTimeBudget:       pickDurationFlag(cmd, "scan-time-budget", flagScanTimeBudget, lcfg.ScanTimeBudget, gcfg.ScanTimeBudget),
		GlobalArtifactBudget: flagArtifactBudget,
	}

	// Friendly banner before scanning
	if !flagJSON && !flagSARIF {
		if !flagNoUpdateCheck {
			if latest, newer, _ := update.Check(version, false); newer && latest != "" {
				fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'veilscan update' to upgrade\n", latest)
			}
		}
		n := len(rules.BuiltinNames())
		if ruleSet != nil {
			n = ruleSet.Len()
		}
		fmt.Fprintf(os.Stderr, "Scanning %s with %d rules...\n", abs, n)
	}

	// Optional progress bar: simple textual bar
	total, _ := engine.CountTargets(cfg)
	progressed := 0
	if total > 0 && !flagJSON && !flagSARIF {
		cfg.Progress = func() {
			progressed++
			if progressed%10 == 0 || progressed == total {
				pct := float64(progressed) / float64(total) * 100
				fmt.Fprintf(os.Stderr, "\r[%d/%d] %.0f%%", progressed, total, pct)
			}
		}
	}
	res, err := engine.ScanWithStats(cfg)
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	if total > 0 && !flagJSON && !flagSARIF {
		fmt.Fprintln(os.Stderr)
	}

	for _, d := range res.Diagnostics {
		logger.Debug("rule diagnostic", "path", d.Path, "rule", d.Diag.Rule, "kind", d.Diag.Kind, "offset", d.Diag.Offset, "detail", d.Diag.Detail)
	}
	for _, e := range res.ArtifactErrors {
		logger.Warn("artifact scan", "err", e)
	}
	if s := res.ArtifactStats; s.AbortedByBytes+s.AbortedByEntries+s.AbortedByDepth+s.AbortedByTime > 0 {
		fmt.Fprintf(os.Stderr, "warning: artifacts hit scan limits (bytes: %d, entries: %d, depth: %d, time: %d)\n",
			s.AbortedByBytes, s.AbortedByEntries, s.AbortedByDepth, s.AbortedByTime)
	}

	baselineInUse := ""
	baseline, blErr := report.LoadBaseline(baselineFileName)
	if blErr == nil {
		baselineInUse = baselineFileName
	}
	newFindings := report.FilterNewFindings(res.Findings, baseline)
	if newFindings == nil {
		// JSON consumers get a list, never null
		newFindings = []types.Finding{}
	}

	showMatches := pickBool(flagShowMatches, lcfg.ShowMatches, gcfg.ShowMatches)
	opts := report.PrintOptions{
		NoColor:      noColor,
		ShowMatches:  showMatches,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
	}
	switch {
	case flagSARIF:
		if err := report.WriteSARIF(os.Stdout, newFindings); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newFindings); err != nil {
			return err
		}
	case flagText:
		report.PrintText(os.Stdout, newFindings, opts)
	default:
		report.PrintTable(os.Stdout, newFindings, opts)
	}

	// Optional upload step: do not fail the scan on upload errors
	if flagUploadURL != "" {
		if err := uploadFindings(abs, flagUploadURL, flagUploadToken, flagNoUploadMeta, convertFindings(newFindings)); err != nil {
			fmt.Fprintln(os.Stderr, "upload warning:", err)
		}
	}

	if !flagDryRun {
		if err := cache.SaveResults(abs, res.Findings); err != nil {
			logger.Debug("results cache", "err", err)
		}
		rec := audit.CreateScanRecord(abs, res.Findings, newFindings, res.FilesScanned, res.Duration, baselineInUse)
		if err := audit.NewAuditLog(abs).LogScan(rec); err != nil {
			logger.Debug("audit log", "err", err)
		}
	}

	if cmd.Flags().Changed("enable") || cmd.Flags().Changed("disable") {
		fmt.Fprintf(os.Stderr, "rules active: %s\n", activeSetSummary(cfg))
	}

	failOn := pickStringFlag(cmd, "fail-on", flagFailOn, lcfg.FailOn, gcfg.FailOn)
	if report.ShouldFail(newFindings, failOn) {
		os.Exit(1)
	}
	return nil
}

func activeSetSummary(cfg engine.Config) string {
	names := rules.BuiltinNames()
	if cfg.Rules != nil {
		names = cfg.Rules.Names()
	}
	if cfg.EnableRules != "" {
		names = splitCSV(cfg.EnableRules)
	}
	if cfg.DisableRules != "" && cfg.EnableRules == "" {
		disabled := map[string]bool{}
		for _, d := range splitCSV(cfg.DisableRules) {
			disabled[d] = true
		}
		var kept []string
		for _, n := range names {
			if !disabled[n] {
				kept = append(kept, n)
			}
		}
		names = kept
	}
	return strings.Join(names, ",")
}
