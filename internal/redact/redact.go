// Package redact produces sanitized text from scan results. Matched spans
// are replaced with placeholders; everything else is preserved byte for
// byte.
package redact

import (
	"fmt"
	"os"
	"strings"

	"github.com/veilscan/veilscan/internal/scan"
	"github.com/veilscan/veilscan/internal/types"
)

// PlaceholderFunc maps one resolved match to its replacement text.
type PlaceholderFunc func(m types.Match) string

// Placeholder is the default replacement: [REDACTED:<rule>].
func Placeholder(m types.Match) string {
	return "[REDACTED:" + m.Rule + "]"
}

// Mask returns a PlaceholderFunc that keeps the first showFirst and last
// showLast bytes of the match and stars out the rest, preserving length.
func Mask(showFirst, showLast int) PlaceholderFunc {
	if showFirst < 0 {
		showFirst = 0
	}
	if showLast < 0 {
		showLast = 0
	}
	return func(m types.Match) string {
		n := len(m.Text)
		if n <= showFirst+showLast {
			return strings.Repeat("*", n)
		}
		return m.Text[:showFirst] + strings.Repeat("*", n-showFirst-showLast) + m.Text[n-showLast:]
	}
}

// Text replaces each match span in src with fn's placeholder in one pass.
// Matches must be sorted by start and non-overlapping, as produced by a
// ScanResult; spans that fall outside src or behind the write cursor are
// skipped. A nil fn uses Placeholder.
func Text(src string, matches []types.Match, fn PlaceholderFunc) string {
	if len(matches) == 0 {
		return src
	}
	if fn == nil {
		fn = Placeholder
	}
	var b strings.Builder
	b.Grow(len(src))
	cur := 0
	for _, m := range matches {
		if m.Start < cur || m.End <= m.Start || m.End > len(src) {
			continue
		}
		b.WriteString(src[cur:m.Start])
		b.WriteString(fn(m))
		cur = m.End
	}
	b.WriteString(src[cur:])
	return b.String()
}

// Apply scans the file at path with sc and rewrites it with matches
// replaced. It reports whether the content changed. File permissions are
// preserved. Applying twice is a no-op the second time.
func Apply(path string, sc *scan.Scanner, fn PlaceholderFunc) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	src := string(data)
	res := sc.Scan(src)
	out := Text(src, res.Matches, fn)
	if out == src {
		return false, nil
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(out), mode); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// WouldChange reports whether Apply with the same fn would modify the
// file, without touching it.
func WouldChange(path string, sc *scan.Scanner, fn PlaceholderFunc) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	src := string(data)
	res := sc.Scan(src)
	return Text(src, res.Matches, fn) != src, nil
}
