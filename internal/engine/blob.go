package engine

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/veilscan/veilscan/internal/ctxparse"
	"github.com/veilscan/veilscan/internal/scan"
	"github.com/veilscan/veilscan/internal/types"
)

// inlineIgnoreLine marks a single line as vetted; findings on it are dropped.
const inlineIgnoreLine = "veilscan:ignore"

// scanBlob runs the rule set over one blob and converts the surviving matches
// into findings with 1-based line and column positions. In structured mode the
// nearest key path is attached for JSON and YAML files.
func scanBlob(sc *scan.Scanner, cfg Config, path string, data []byte) ([]types.Finding, []types.Diagnostic) {
	text := string(data)
	res := sc.Scan(text)
	if len(res.Matches) == 0 {
		return nil, res.Diagnostics
	}

	starts := lineStarts(text)
	var fields []ctxparse.Field
	if cfg.Structured {
		fields = structuredFields(path, data)
	}

	out := make([]types.Finding, 0, len(res.Matches))
	for _, m := range res.Matches {
		line, col := locate(starts, m.Start)
		if lineHasMarker(text, starts, line) {
			continue
		}
		f := types.Finding{
			Path:     path,
			Line:     line,
			Column:   col,
			Rule:     m.Rule,
			Severity: m.Severity,
			Match:    m.Text,
			Start:    m.Start,
			End:      m.End,
		}
		if len(fields) > 0 {
			f.Context = fieldAt(fields, line)
		}
		out = append(out, f)
	}
	return out, res.Diagnostics
}

// lineStarts returns the byte offset of the first byte of every line.
func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// locate maps a byte offset to a 1-based line and column.
func locate(starts []int, off int) (line, col int) {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > off }) - 1
	return i + 1, off - starts[i] + 1
}

func lineHasMarker(text string, starts []int, line int) bool {
	lo := starts[line-1]
	hi := len(text)
	if line < len(starts) {
		hi = starts[line] - 1
	}
	return strings.Contains(text[lo:hi], inlineIgnoreLine)
}

func structuredFields(path string, data []byte) []ctxparse.Field {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ctxparse.JSONFields(data)
	case ".yaml", ".yml":
		return ctxparse.YAMLFields(data)
	}
	return nil
}

// fieldAt returns the key path declared on the given line, if any.
func fieldAt(fields []ctxparse.Field, line int) string {
	for _, f := range fields {
		if f.Line == line {
			return f.Key
		}
	}
	return ""
}
