// Package artifacts streams text out of archives, container image
// tarballs, OCI layouts, and remote registry images so their contents can
// be scanned without extracting anything to disk. Every reader is bounded
// by Limits; oversized or slow artifacts are abandoned and counted in
// Stats instead of failing the run.
package artifacts

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/veilscan/veilscan/internal/ignore"
)

// Limits bounds how much work a single artifact may consume. Workers and
// GlobalDeadline apply to the whole run rather than per artifact.
type Limits struct {
	MaxArchiveBytes int64
	MaxEntries      int
	MaxDepth        int
	TimeBudget      time.Duration
	Workers         int
	GlobalDeadline  time.Time
}

const (
	abortBytes   = "bytes"
	abortEntries = "entries"
	abortDepth   = "depth"
	abortTime    = "time"
)

// Stats counts artifacts whose scan was cut short by a limit. Safe for
// concurrent use.
type Stats struct {
	mu sync.Mutex

	AbortedByBytes   int
	AbortedByEntries int
	AbortedByDepth   int
	AbortedByTime    int
}

func (s *Stats) add(reason string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch reason {
	case abortBytes:
		s.AbortedByBytes++
	case abortEntries:
		s.AbortedByEntries++
	case abortDepth:
		s.AbortedByDepth++
	case abortTime:
		s.AbortedByTime++
	}
}

// PathAllowFunc reports whether a root-relative artifact path should be
// considered for deep scanning, after .veilscanignore filtering. A nil
// func allows everything.
type PathAllowFunc func(rel string) bool

type emitFunc = func(path string, data []byte)

// budget tracks consumption against Limits for one artifact. Its deadline
// is the earlier of the per-artifact TimeBudget and the run-wide
// GlobalDeadline.
type budget struct {
	limits       Limits
	deadline     time.Time
	stats        *Stats
	decompressed int64
	entries      int
	aborted      bool
}

func newBudget(limits Limits, stats *Stats) *budget {
	b := &budget{limits: limits, stats: stats}
	if limits.TimeBudget > 0 {
		b.deadline = time.Now().Add(limits.TimeBudget)
	}
	if !limits.GlobalDeadline.IsZero() && (b.deadline.IsZero() || limits.GlobalDeadline.Before(b.deadline)) {
		b.deadline = limits.GlobalDeadline
	}
	return b
}

// exhausted reports whether a limit has been hit, recording the first
// abort reason in stats.
func (b *budget) exhausted(depth int) bool {
	r := limitsExceededReason(b.limits, b.decompressed, b.entries, depth, b.deadline)
	if r == "" {
		return false
	}
	if !b.aborted {
		b.aborted = true
		b.stats.add(r)
	}
	return true
}

var (
	errTimeBudget = errors.New("time budget exceeded")
	errByteBudget = errors.New("byte budget exceeded")
)

// readAll drains r while charging the byte budget, copying in 32KiB
// chunks so the deadline is honored mid stream. A read that runs out of
// byte budget returns what fit; the next exhausted check aborts the
// artifact.
func (b *budget) readAll(r io.Reader) ([]byte, error) {
	if !b.deadline.IsZero() && time.Now().After(b.deadline) {
		return nil, errTimeBudget
	}
	remain := int64(1 << 62)
	if b.limits.MaxArchiveBytes > 0 {
		remain = b.limits.MaxArchiveBytes - b.decompressed
		if remain <= 0 {
			return nil, errByteBudget
		}
	}
	var buf bytes.Buffer
	const chunk = 32 * 1024
	for remain > 0 {
		if !b.deadline.IsZero() && time.Now().After(b.deadline) {
			return nil, errTimeBudget
		}
		sz := int64(chunk)
		if sz > remain {
			sz = remain
		}
		n, err := io.CopyN(&buf, r, sz)
		b.decompressed += n
		remain -= n
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// ScanArchives walks recognized archive files under root and emits their
// text entries under virtual paths like "bundle.zip::conf/app.env".
func ScanArchives(root string, limits Limits, emit func(path string, data []byte)) error {
	return ScanArchivesWithStats(root, limits, nil, emit, nil)
}

// ScanArchivesWithFilter is like ScanArchives but consults an allow
// predicate before opening an archive.
func ScanArchivesWithFilter(root string, limits Limits, allow PathAllowFunc, emit func(path string, data []byte)) error {
	return ScanArchivesWithStats(root, limits, allow, emit, nil)
}

// ScanArchivesWithStats additionally records aborted scans in stats.
// Archives are processed by up to limits.Workers goroutines; emit calls
// are serialized.
func ScanArchivesWithStats(root string, limits Limits, allow PathAllowFunc, emit func(path string, data []byte), stats *Stats) error {
	ign, _ := ignore.LoadRoot(root)
	emit = lockedEmit(emit)
	var jobs []func()
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if ign.Match(rel) {
			return nil
		}
		if allow != nil && !allow(rel) {
			return nil
		}
		if !isArchivePath(rel) {
			return nil
		}
		// Container tarballs belong to ScanContainers.
		if strings.HasSuffix(strings.ToLower(rel), ".tar") {
			if ok, _ := isContainerTar(p); ok {
				return nil
			}
		}
		full := p
		jobs = append(jobs, func() {
			scanArchiveFile(full, rel, newBudget(limits, stats), emit)
		})
		return nil
	})
	runJobs(limits.Workers, jobs)
	return nil
}

// ScanContainers walks docker save tarballs and OCI image layout
// directories under root and emits layer contents. Files inside a layer
// get paths like "image.tar::<layerID>/etc/passwd".
func ScanContainers(root string, limits Limits, emit func(path string, data []byte)) error {
	return ScanContainersWithStats(root, limits, nil, emit, nil)
}

// ScanContainersWithFilter is like ScanContainers but consults an allow
// predicate before opening an image.
func ScanContainersWithFilter(root string, limits Limits, allow PathAllowFunc, emit func(path string, data []byte)) error {
	return ScanContainersWithStats(root, limits, allow, emit, nil)
}

// ScanContainersWithStats additionally records aborted scans in stats.
// Images are processed by up to limits.Workers goroutines; emit calls are
// serialized.
func ScanContainersWithStats(root string, limits Limits, allow PathAllowFunc, emit func(path string, data []byte), stats *Stats) error {
	ign, _ := ignore.LoadRoot(root)
	emit = lockedEmit(emit)
	var jobs []func()
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p == root || !IsOCIImage(p) {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return filepath.SkipDir
			}
			if !ign.Match(rel) && (allow == nil || allow(rel)) {
				full := p
				jobs = append(jobs, func() {
					scanOCILayout(full, rel, newBudget(limits, stats), emit)
				})
			}
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if ign.Match(rel) {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(rel), ".tar") {
			return nil
		}
		if allow != nil && !allow(rel) {
			return nil
		}
		if ok, _ := isContainerTar(p); !ok {
			return nil
		}
		full := p
		jobs = append(jobs, func() {
			scanContainerTar(full, rel, newBudget(limits, stats), emit)
		})
		return nil
	})
	runJobs(limits.Workers, jobs)
	return nil
}

// runJobs executes jobs with up to n workers.
func runJobs(n int, jobs []func()) {
	if n < 1 {
		n = 1
	}
	if n > len(jobs) {
		n = len(jobs)
	}
	if n <= 1 {
		for _, job := range jobs {
			job()
		}
		return
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, n)
	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(job func()) {
			defer wg.Done()
			defer func() { <-sem }()
			job()
		}(job)
	}
	wg.Wait()
}

// lockedEmit serializes emit callbacks from concurrent workers.
func lockedEmit(emit emitFunc) emitFunc {
	var mu sync.Mutex
	return func(p string, d []byte) {
		mu.Lock()
		defer mu.Unlock()
		emit(p, d)
	}
}

func safeClose(c io.Closer) {
	_ = c.Close()
}

// --- archive readers ---

func isArchivePath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".zip") || strings.HasSuffix(lower, ".tar") ||
		strings.HasSuffix(lower, ".tgz") || strings.HasSuffix(lower, ".tar.gz") ||
		strings.HasSuffix(lower, ".gz")
}

// isContainerTar sniffs tar headers for image markers: manifest.json, an
// oci-layout file, or legacy "<id>/layer.tar" entries.
func isContainerTar(fullPath string) (bool, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		return false, err
	}
	defer safeClose(f)
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) || hdr == nil {
			return false, nil
		}
		if err != nil {
			return false, nil
		}
		name := hdr.Name
		if name == "manifest.json" || name == "oci-layout" ||
			strings.HasSuffix(name, "/layer.tar") || strings.HasSuffix(name, "\\layer.tar") {
			return true, nil
		}
	}
}

func scanArchiveFile(fullPath, rel string, bud *budget, emit emitFunc) {
	f, err := os.Open(fullPath)
	if err != nil {
		return
	}
	defer safeClose(f)

	lower := strings.ToLower(rel)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		fi, err := f.Stat()
		if err != nil {
			return
		}
		zr, err := zip.NewReader(f, fi.Size())
		if err != nil {
			return
		}
		scanZipEntries(rel, zr, bud, 0, emit)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return
		}
		defer safeClose(gz)
		scanTarReader(rel, bud, 0, emit, gz)
	case strings.HasSuffix(lower, ".tar"):
		scanTarReader(rel, bud, 0, emit, f)
	case strings.HasSuffix(lower, ".gz"):
		// Single-file gzip: the decompressed stream is one entry.
		gz, err := gzip.NewReader(f)
		if err != nil {
			return
		}
		defer safeClose(gz)
		name := gz.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(rel), ".gz")
		}
		b, readErr := bud.readAll(gz)
		if readErr != nil {
			bud.exhausted(0)
			return
		}
		if looksBinary(b) || looksNonTextName(name, b) {
			return
		}
		emit(rel+"::"+name, b)
		bud.entries++
	}
}

func scanZipEntries(base string, zr *zip.Reader, bud *budget, depth int, emit emitFunc) {
	for _, f := range zr.File {
		if bud.exhausted(depth) {
			return
		}
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		b, readErr := bud.readAll(rc)
		safeClose(rc)
		if readErr != nil {
			continue
		}
		name := f.Name
		if looksBinary(b) || looksNonTextName(name, b) {
			if depth < bud.limits.MaxDepth && isArchivePath(name) {
				scanNestedArchive(base+"::"+name, name, b, bud, depth+1, emit)
			}
			continue
		}
		emit(base+"::"+name, b)
		bud.entries++
	}
}

func scanTarReader(base string, bud *budget, depth int, emit emitFunc, r io.Reader) {
	scanTarReaderJoin(base, "::", bud, depth, emit, r)
}

// scanTarReaderJoin streams tar entries, joining entry names to base with
// sep. Container layers use "/" so findings read like in-image paths.
func scanTarReaderJoin(base, sep string, bud *budget, depth int, emit emitFunc, r io.Reader) {
	tr := tar.NewReader(r)
	for {
		if bud.exhausted(depth) {
			return
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) || hdr == nil {
			return
		}
		if err != nil {
			return
		}
		if hdr.FileInfo().IsDir() {
			continue
		}
		b, readErr := bud.readAll(tr)
		if readErr != nil {
			continue
		}
		name := hdr.Name
		if looksBinary(b) || looksNonTextName(name, b) {
			if depth < bud.limits.MaxDepth && isArchivePath(name) {
				scanNestedArchive(base+sep+name, name, b, bud, depth+1, emit)
			}
			continue
		}
		emit(base+sep+name, b)
		bud.entries++
	}
}

// scanNestedArchive recurses into an archive found inside another
// archive. The blob is already in memory, bounded by the byte budget that
// read it.
func scanNestedArchive(pathChain, name string, blob []byte, bud *budget, depth int, emit emitFunc) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
		if err != nil {
			return
		}
		scanZipEntries(pathChain, zr, bud, depth, emit)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gz, err := gzip.NewReader(bytes.NewReader(blob))
		if err != nil {
			return
		}
		defer safeClose(gz)
		scanTarReader(pathChain, bud, depth, emit, gz)
	case strings.HasSuffix(lower, ".tar"):
		scanTarReader(pathChain, bud, depth, emit, bytes.NewReader(blob))
	case strings.HasSuffix(lower, ".gz"):
		gz, err := gzip.NewReader(bytes.NewReader(blob))
		if err != nil {
			return
		}
		defer safeClose(gz)
		inner := gz.Name
		if inner == "" {
			inner = strings.TrimSuffix(filepath.Base(name), ".gz")
		}
		b, readErr := bud.readAll(gz)
		if readErr != nil {
			return
		}
		if looksBinary(b) || looksNonTextName(inner, b) {
			return
		}
		emit(pathChain+"::"+inner, b)
		bud.entries++
	}
}

// --- container readers ---

// scanContainerTar streams a docker save tarball, handling both legacy
// "<id>/layer.tar" layers and OCI style "blobs/sha256/<hex>" blobs.
func scanContainerTar(full, rel string, bud *budget, emit emitFunc) {
	f, err := os.Open(full)
	if err != nil {
		return
	}
	defer safeClose(f)
	tr := tar.NewReader(f)
	for {
		if bud.exhausted(0) {
			return
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) || hdr == nil {
			return
		}
		if err != nil {
			return
		}
		if hdr.FileInfo().IsDir() {
			continue
		}
		name := hdr.Name
		switch {
		case strings.HasSuffix(name, "/layer.tar") || strings.HasSuffix(name, "\\layer.tar"):
			vp := rel + "::" + layerIDFromPath(name)
			lr := &io.LimitedReader{R: tr, N: hdr.Size}
			scanTarReaderJoin(vp, "/", bud, 1, emit, lr)
		case strings.HasPrefix(name, "blobs/sha256/"):
			scanContainerBlob(rel, name, hdr.Size, bud, emit, tr)
		}
	}
}

// scanContainerBlob inspects one OCI blob entry from a docker save
// tarball. Layer blobs are tar or gzipped tar; json blobs (image config,
// manifests) are emitted directly so env vars and build history get
// scanned too.
func scanContainerBlob(rel, name string, size int64, bud *budget, emit emitFunc, r io.Reader) {
	b, err := bud.readAll(&io.LimitedReader{R: r, N: size})
	if err != nil {
		return
	}
	vp := rel + "::" + shortDigest(name)
	switch {
	case len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b:
		gz, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return
		}
		defer safeClose(gz)
		scanTarReaderJoin(vp, "/", bud, 1, emit, gz)
	case isTarData(b):
		scanTarReaderJoin(vp, "/", bud, 1, emit, bytes.NewReader(b))
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		emit(vp, b)
		bud.entries++
	}
}

func layerIDFromPath(name string) string {
	id := filepath.Dir(name)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.LastIndex(id, "\\"); i >= 0 {
		id = id[i+1:]
	}
	return id
}

func shortDigest(name string) string {
	hex := name
	if i := strings.LastIndexByte(hex, '/'); i >= 0 {
		hex = hex[i+1:]
	}
	if len(hex) > 12 {
		hex = hex[:12]
	}
	return hex
}

func isTarData(b []byte) bool {
	return len(b) > 262 && string(b[257:262]) == "ustar"
}

// --- limits and text heuristics ---

func limitsExceededReason(l Limits, decompressed int64, entries, depth int, deadline time.Time) string {
	if l.MaxEntries > 0 && entries >= l.MaxEntries {
		return abortEntries
	}
	if l.MaxArchiveBytes > 0 && decompressed >= l.MaxArchiveBytes {
		return abortBytes
	}
	if l.MaxDepth > 0 && depth > l.MaxDepth {
		return abortDepth
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return abortTime
	}
	return ""
}

func looksBinary(b []byte) bool {
	const sniff = 800
	n := len(b)
	if n > sniff {
		n = sniff
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

func looksNonTextName(path string, b []byte) bool {
	lower := strings.ToLower(path)
	for _, suffix := range []string{".png", ".jpg", ".jpeg", ".gif", ".pdf", ".webp", ".ico", ".woff", ".woff2"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
		return true
	}
	if len(b) >= 2 && b[0] == 'P' && b[1] == 'K' {
		return true
	}
	return false
}
