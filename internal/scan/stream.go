package scan

import (
	"context"
	"io"

	"github.com/veilscan/veilscan/internal/types"
)

// DefaultChunkSize is the streaming chunk size when Options leaves it zero.
const DefaultChunkSize = 64 << 10

// Options tunes ScanReader. The zero value uses DefaultChunkSize and the
// rule set's OverlapHint.
type Options struct {
	// ChunkSize is the scan window in bytes.
	ChunkSize int
	// Overlap is the maximum match length to protect across chunk
	// boundaries. Rules whose matches exceed it can be reported split.
	Overlap int
}

// ScanReader scans r in chunks and returns the resolved result for the
// whole stream. Adjacent chunks share an overlap window so a match
// crossing a boundary is seen whole by exactly one chunk: matches starting
// inside the trailing window are deferred to the next chunk, which begins
// one byte earlier than the window so word boundaries keep real context on
// both sides. ctx is checked between chunks; a cancelled scan returns
// ctx.Err() and whatever I/O error occurs is returned as-is.
func (s *Scanner) ScanReader(ctx context.Context, r io.Reader, opts Options) (*types.ScanResult, error) {
	hint := opts.Overlap
	if hint <= 0 {
		hint = s.set.OverlapHint()
	}
	window := hint + 1 // right-context byte for trailing boundaries
	carry := window + 1
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < carry*2 {
		chunkSize = carry * 2
	}

	col := NewCollector(s)
	buf := make([]byte, 0, chunkSize)
	tmp := make([]byte, 32<<10)
	base := 0
	first := true
	eof := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for len(buf) < chunkSize && !eof {
			n, err := r.Read(tmp)
			if n > 0 {
				buf = append(buf, tmp[:n]...)
			}
			if err != nil {
				if err == io.EOF {
					eof = true
					break
				}
				return nil, err
			}
		}
		raw, diags := s.ScanChunk(string(buf), base)
		lo := base
		if !first {
			lo = base + 1
		}
		if eof {
			col.Add(filterByStart(raw, lo, base+len(buf)+1), diags)
			return col.Result(base + len(buf)), nil
		}
		cut := base + len(buf) - window
		col.Add(filterByStart(raw, lo, cut), diags)
		next := make([]byte, carry, chunkSize)
		copy(next, buf[len(buf)-carry:])
		base += len(buf) - carry
		buf = next
		first = false
	}
}

// filterByStart keeps matches with lo <= Start < hi. It filters in place.
func filterByStart(raw []types.RawMatch, lo, hi int) []types.RawMatch {
	out := raw[:0]
	for _, m := range raw {
		if m.Start >= lo && m.Start < hi {
			out = append(out, m)
		}
	}
	return out
}
