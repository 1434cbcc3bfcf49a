package veilscan

import (
	"runtime/debug"
	"strings"
	"time"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
	"github.com/veilscan/veilscan/internal/config"
	"github.com/veilscan/veilscan/internal/rules"
)

func selfUpdate() (string, error) {
	v := version
	// Use build info if tag overridden at build-time
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	// parse semantic version (strip leading v)
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	// Update from GitHub Releases: veilscan/veilscan
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), "veilscan/veilscan")
	if err != nil {
		return "", err
	}
	return latest.Version.String(), nil
}

// resolveRuleSet builds the active rule set for a command: the built-in
// catalog or a rules file, narrowed by enable/disable name lists.
func resolveRuleSet(rulesFile, enable, disable string) (*rules.Set, error) {
	var set *rules.Set
	var err error
	if rulesFile != "" {
		set, err = loadRulesSet(rulesFile, nil)
	} else {
		set, err = rules.Default()
	}
	if err != nil {
		return nil, err
	}
	if enable != "" || disable != "" {
		set, err = set.Filter(splitCSV(enable), splitCSV(disable))
		if err != nil {
			return nil, err
		}
	}
	return set, nil
}

// loadRulesSet compiles a YAML rules file. mergeOverride, when non-nil,
// replaces the file's own merge switch.
func loadRulesSet(path string, mergeOverride *bool) (*rules.Set, error) {
	doc, err := config.LoadRules(path)
	if err != nil {
		return nil, err
	}
	if mergeOverride != nil {
		doc.Merge = *mergeOverride
	}
	return config.BuildSet(doc)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lineCol converts a byte offset into 1-based line and column numbers.
func lineCol(text string, off int) (int, int) {
	if off > len(text) {
		off = len(text)
	}
	line := 1 + strings.Count(text[:off], "\n")
	last := strings.LastIndexByte(text[:off], '\n')
	return line, off - last
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// The *Flag variants consult cobra's Changed so flags with non-zero
// defaults (max-bytes, fail-on, the artifact limits) still yield to the
// config file when left untouched. Precedence stays CLI > local > global.

func pickStringFlag(cmd *cobra.Command, name, cli string, local, global *string) string {
	if cmd.Flags().Changed(name) {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return cli
}

func pickIntFlag(cmd *cobra.Command, name string, cli int, local, global *int) int {
	if cmd.Flags().Changed(name) {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return cli
}

func pickInt64Flag(cmd *cobra.Command, name string, cli int64, local, global *int64) int64 {
	if cmd.Flags().Changed(name) {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return cli
}

func pickDurationFlag(cmd *cobra.Command, name string, cli time.Duration, local, global *string) time.Duration {
	if cmd.Flags().Changed(name) {
		return cli
	}
	if local != nil {
		if d, err := time.ParseDuration(*local); err == nil {
			return d
		}
	}
	if global != nil {
		if d, err := time.ParseDuration(*global); err == nil {
			return d
		}
	}
	return cli
}
