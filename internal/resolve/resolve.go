// Package resolve turns overlapping raw matches into a deterministic
// non-overlapping selection.
package resolve

import (
	"sort"

	"github.com/veilscan/veilscan/internal/types"
)

// Resolve selects a non-overlapping subset of candidates. Candidates are
// ordered by start offset, then longer span, then higher priority, then
// rule name, and a single left-to-right sweep keeps every candidate that
// begins at or after the rightmost byte consumed so far. Zero-length and
// inverted spans are dropped before ordering so they can never suppress a
// real match. The result is sorted by start offset and the input is left
// unmodified.
func Resolve(candidates []types.RawMatch) []types.RawMatch {
	kept := make([]types.RawMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.End <= c.Start {
			continue
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		al, bl := a.End-a.Start, b.End-b.Start
		if al != bl {
			return al > bl
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Rule < b.Rule
	})
	out := make([]types.RawMatch, 0, len(kept))
	rightmost := 0
	for _, c := range kept {
		if c.Start >= rightmost {
			out = append(out, c)
			rightmost = c.End
		}
	}
	return out
}
