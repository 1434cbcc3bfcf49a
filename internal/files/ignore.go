package files

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-repo scan ignore file.
const IgnoreFileName = ".veilscanignore"

// AppendIgnore ensures the given pattern is present in .veilscanignore at
// repoRoot. It creates the file if missing and appends a newline if
// needed. Idempotent.
func AppendIgnore(repoRoot, pattern string) error {
	path := filepath.Join(repoRoot, IgnoreFileName)
	// read existing lines if present
	existing := map[string]bool{}
	if f, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			existing[line] = true
		}
		_ = f.Close()
	}
	if existing[pattern] {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(pattern + "\n"); err != nil {
		return err
	}
	return nil
}

// DefaultGeneratedIgnores returns patterns for generated or fixture
// content that is rarely worth scanning for personal data.
func DefaultGeneratedIgnores() []string {
	return []string{
		"*.min.js",
		"*.lock",
		"testdata/**",
	}
}
