// Package ignore matches paths against a .veilscanignore file. Patterns
// follow a gitignore-like subset: trailing-slash entries exclude whole
// directories, globs apply to the basename or the full relative path, and
// lines starting with # are comments.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher holds the parsed patterns of one ignore file.
type Matcher struct {
	patterns []string
}

// Load parses the ignore file at p. A missing file is an error; use
// LoadRoot when the file is optional.
func Load(p string) (*Matcher, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m := &Matcher{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, filepath.ToSlash(line))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadRoot loads root/.veilscanignore, returning an empty matcher when
// the file does not exist.
func LoadRoot(root string) (*Matcher, error) {
	m, err := Load(filepath.Join(root, ".veilscanignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Matcher{}, nil
		}
		return nil, err
	}
	return m, nil
}

// Match reports whether the root-relative path rel is excluded.
func (m *Matcher) Match(rel string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	for _, p := range m.patterns {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(rel, p) || strings.Contains(rel, "/"+p) {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

// Len returns the number of active patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}
