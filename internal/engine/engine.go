package engine

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/veilscan/veilscan/internal/artifacts"
	"github.com/veilscan/veilscan/internal/cache"
	"github.com/veilscan/veilscan/internal/git"
	"github.com/veilscan/veilscan/internal/ignore"
	"github.com/veilscan/veilscan/internal/rules"
	"github.com/veilscan/veilscan/internal/scan"
	"github.com/veilscan/veilscan/internal/types"
)

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Root            string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	ScanStaged      bool
	HistoryCommits  int
	BaseBranch      string
	Threads         int
	EnableRules     string
	DisableRules    string
	MinPriority     int
	DryRun          bool
	NoColor         bool
	DefaultExcludes bool
	NoCache         bool
	NoValidators    bool
	Structured      bool
	Progress        func()

	// Rules overrides the built-in catalog when set.
	Rules *rules.Set

	// Deep artifact scanning (optional)
	ScanArchives         bool
	ScanContainers       bool
	RegistryImages       []string // Remote registry images to scan (e.g. gcr.io/proj/img:tag)
	MaxArchiveBytes      int64
	MaxEntries           int
	MaxDepth             int
	ScanTimeBudget       time.Duration
	GlobalArtifactBudget time.Duration
}

type pendingScan struct {
	path     string
	data     []byte
	cacheKey string
	cacheVal string
}

func determineBatchSize(threads int) int {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads < 2 {
		threads = 2
	}
	if threads > 32 {
		threads = 32
	}
	return threads * 4
}

func normalize(cfg Config) Config {
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 20
	}
	return cfg
}

// buildScanner resolves the rule set for this run: the caller-supplied set or
// the built-in catalog, narrowed by enable/disable lists and stripped of
// validators when requested.
func buildScanner(cfg Config) (*scan.Scanner, error) {
	set := cfg.Rules
	if set == nil {
		var err error
		set, err = rules.Default()
		if err != nil {
			return nil, err
		}
	}
	if cfg.EnableRules != "" || cfg.DisableRules != "" {
		var err error
		set, err = set.Filter(splitList(cfg.EnableRules), splitList(cfg.DisableRules))
		if err != nil {
			return nil, err
		}
	}
	if cfg.NoValidators {
		set = set.WithoutValidators()
	}
	return scan.New(set), nil
}

func splitList(s string) []string {
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

// processChunk scans a batch of blobs in parallel and emits the findings in
// input order. Cache entries are recorded only for completed scans.
func processChunk(sc *scan.Scanner, cfg Config, chunk []pendingScan, emit func([]types.Finding), updated map[string]string, res *Result) {
	if len(chunk) == 0 {
		return
	}

	if !cfg.DryRun {
		workers := cfg.Threads
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		if workers > len(chunk) {
			workers = len(chunk)
		}
		findings := make([][]types.Finding, len(chunk))
		diags := make([][]types.Diagnostic, len(chunk))
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i := range chunk {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				findings[i], diags[i] = scanBlob(sc, cfg, chunk[i].path, chunk[i].data)
			}(i)
		}
		wg.Wait()
		for i := range chunk {
			emit(filterByPriority(findings[i], sc.Set(), cfg.MinPriority))
			for _, d := range diags[i] {
				res.Diagnostics = append(res.Diagnostics, FileDiagnostic{Path: chunk[i].path, Diag: d})
			}
		}
	}

	for _, job := range chunk {
		res.FilesScanned++
		if cfg.Progress != nil {
			cfg.Progress()
		}
		if !cfg.NoCache && !cfg.DryRun && job.cacheKey != "" && job.cacheVal != "" {
			updated[job.cacheKey] = job.cacheVal
		}
	}
}

// Scan runs a scan and returns only findings (without stats).
func Scan(cfg Config) ([]types.Finding, error) {
	res, err := ScanWithStats(cfg)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// Result contains findings and basic scan statistics.
type Result struct {
	Findings       []types.Finding
	FilesScanned   int
	Duration       time.Duration
	Diagnostics    []FileDiagnostic
	ArtifactStats  DeepStats
	ArtifactErrors []error
}

// FileDiagnostic ties a scan diagnostic to the file that produced it.
type FileDiagnostic struct {
	Path string           `json:"path"`
	Diag types.Diagnostic `json:"diag"`
}

// DeepStats summarizes artifact scanning abort reasons.
type DeepStats struct {
	AbortedByBytes   int
	AbortedByEntries int
	AbortedByDepth   int
	AbortedByTime    int
}

// ScanWithStats runs a scan and returns findings along with timing and counts.
func ScanWithStats(cfg Config) (Result, error) {
	var result Result
	cfg = normalize(cfg)

	sc, err := buildScanner(cfg)
	if err != nil {
		return result, fmt.Errorf("failed to build rule set: %w", err)
	}

	var db cache.DB
	if !cfg.NoCache {
		db, _ = cache.Load(cfg.Root)
	} else {
		db.Entries = map[string]string{}
	}
	updated := map[string]string{}

	ign, _ := ignore.LoadRoot(cfg.Root)
	ctx := context.Background()

	var out []types.Finding
	started := time.Now()
	emit := func(fs []types.Finding) {
		out = append(out, fs...)
	}

	if cfg.HistoryCommits == 0 && cfg.BaseBranch == "" {
		if err := scanFilesystem(ctx, cfg, sc, ign, db, emit, updated, &result); err != nil {
			return result, err
		}
	}

	if cfg.ScanStaged {
		if err := scanStaged(cfg, sc, emit, updated, &result); err != nil {
			return result, err
		}
	}

	if cfg.HistoryCommits > 0 {
		if err := scanHistory(cfg, sc, ign, emit, updated, &result); err != nil {
			return result, err
		}
	}

	if cfg.BaseBranch != "" {
		if err := scanDiff(cfg, sc, ign, emit, updated, &result); err != nil {
			return result, err
		}
	}

	if cfg.ScanArchives || cfg.ScanContainers || len(cfg.RegistryImages) > 0 {
		scanArtifacts(cfg, sc, emit, updated, &result)
	}

	result.Findings = out
	result.Duration = time.Since(started)
	if !cfg.NoCache && len(updated) > 0 {
		if db.Entries == nil {
			db.Entries = map[string]string{}
		}
		for k, v := range updated {
			db.Entries[k] = v
		}
		_ = cache.Save(cfg.Root, db)
	}
	return result, nil
}

func scanFilesystem(ctx context.Context, cfg Config, sc *scan.Scanner, ign *ignore.Matcher, db cache.DB, emit func([]types.Finding), updated map[string]string, result *Result) error {
	batchSize := determineBatchSize(cfg.Threads)
	queue := make([]pendingScan, 0, batchSize)

	err := Walk(ctx, cfg, ign, func(p string, data []byte) {
		h := fastHash(data)
		if !cfg.NoCache && db.Entries != nil && db.Entries[p] == h {
			return
		}
		queue = append(queue, pendingScan{
			path:     p,
			data:     data,
			cacheKey: p,
			cacheVal: h,
		})
		if len(queue) >= batchSize {
			processChunk(sc, cfg, queue, emit, updated, result)
			queue = queue[:0]
		}
	})
	if err != nil {
		return err
	}
	processChunk(sc, cfg, queue, emit, updated, result)
	return nil
}

func scanStaged(cfg Config, sc *scan.Scanner, emit func([]types.Finding), updated map[string]string, result *Result) error {
	files, data, err := git.StagedDiff(cfg.Root)
	if err != nil {
		return err
	}

	batchSize := determineBatchSize(cfg.Threads)
	jobs := make([]pendingScan, 0, len(files))
	for i, p := range files {
		if !allowedByGlobs(p, cfg) {
			continue
		}
		if int64(len(data[i])) > cfg.MaxBytes {
			continue
		}
		jobs = append(jobs, pendingScan{
			path:     p,
			data:     data[i],
			cacheKey: p,
			cacheVal: fastHash(data[i]),
		})
	}
	for len(jobs) > 0 {
		end := batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		processChunk(sc, cfg, jobs[:end], emit, updated, result)
		jobs = jobs[end:]
	}
	return nil
}

func scanHistory(cfg Config, sc *scan.Scanner, ign *ignore.Matcher, emit func([]types.Finding), updated map[string]string, result *Result) error {
	entries, err := git.LastNCommits(cfg.Root, cfg.HistoryCommits)
	if err != nil {
		return err
	}

	batchSize := determineBatchSize(cfg.Threads)
	var jobs []pendingScan
	for _, e := range entries {
		for path, blob := range e.Files {
			if !allowedByGlobs(path, cfg) {
				continue
			}
			if ign.Match(path) {
				continue
			}
			if int64(len(blob)) > cfg.MaxBytes {
				continue
			}
			jobs = append(jobs, pendingScan{
				path:     path,
				data:     blob,
				cacheKey: path,
				cacheVal: fastHash(blob),
			})
		}
	}
	for len(jobs) > 0 {
		end := batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		processChunk(sc, cfg, jobs[:end], emit, updated, result)
		jobs = jobs[end:]
	}
	return nil
}

func scanDiff(cfg Config, sc *scan.Scanner, ign *ignore.Matcher, emit func([]types.Finding), updated map[string]string, result *Result) error {
	files, data, err := git.DiffAgainst(cfg.Root, cfg.BaseBranch)
	if err != nil {
		return err
	}

	batchSize := determineBatchSize(cfg.Threads)
	jobs := make([]pendingScan, 0, len(files))
	for i, p := range files {
		if !allowedByGlobs(p, cfg) {
			continue
		}
		if ign.Match(p) {
			continue
		}
		if int64(len(data[i])) > cfg.MaxBytes {
			continue
		}
		trimmed := bytes.TrimSpace(data[i])
		jobs = append(jobs, pendingScan{
			path:     p,
			data:     trimmed,
			cacheKey: p,
			cacheVal: fastHash(trimmed),
		})
	}
	for len(jobs) > 0 {
		end := batchSize
		if end > len(jobs) {
			end = len(jobs)
		}
		processChunk(sc, cfg, jobs[:end], emit, updated, result)
		jobs = jobs[end:]
	}
	return nil
}

func scanArtifacts(cfg Config, sc *scan.Scanner, emit func([]types.Finding), updated map[string]string, result *Result) {
	lim := artifacts.Limits{
		MaxArchiveBytes: cfg.MaxArchiveBytes,
		MaxEntries:      cfg.MaxEntries,
		MaxDepth:        cfg.MaxDepth,
		TimeBudget:      cfg.ScanTimeBudget,
		Workers:         cfg.Threads,
	}
	if cfg.GlobalArtifactBudget > 0 {
		lim.GlobalDeadline = time.Now().Add(cfg.GlobalArtifactBudget)
	}
	batchSize := determineBatchSize(cfg.Threads)
	artifactQueue := make([]pendingScan, 0, batchSize)
	flushArtifacts := func() {
		processChunk(sc, cfg, artifactQueue, emit, updated, result)
		artifactQueue = artifactQueue[:0]
	}
	emitArtifact := func(p string, b []byte) {
		if cfg.DryRun {
			return
		}
		artifactQueue = append(artifactQueue, pendingScan{
			path:     p,
			data:     b,
			cacheKey: p,
			cacheVal: fastHash(b),
		})
		if len(artifactQueue) >= batchSize {
			flushArtifacts()
		}
	}
	allowArtifact := func(rel string) bool { return allowedByGlobs(rel, cfg) }
	var artStats artifacts.Stats

	if cfg.ScanArchives {
		if err := artifacts.ScanArchivesWithStats(cfg.Root, lim, allowArtifact, emitArtifact, &artStats); err != nil {
			result.ArtifactErrors = append(result.ArtifactErrors, err)
		}
	}
	if cfg.ScanContainers {
		if err := artifacts.ScanContainersWithStats(cfg.Root, lim, allowArtifact, emitArtifact, &artStats); err != nil {
			result.ArtifactErrors = append(result.ArtifactErrors, err)
		}
	}
	for _, img := range cfg.RegistryImages {
		if err := artifacts.ScanRegistryImage(img, lim, emitArtifact, &artStats); err != nil {
			result.ArtifactErrors = append(result.ArtifactErrors, err)
		}
	}
	flushArtifacts()
	result.ArtifactStats = DeepStats{
		AbortedByBytes:   artStats.AbortedByBytes,
		AbortedByEntries: artStats.AbortedByEntries,
		AbortedByDepth:   artStats.AbortedByDepth,
		AbortedByTime:    artStats.AbortedByTime,
	}
}

func fastHash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

func filterByPriority(fs []types.Finding, set *rules.Set, min int) []types.Finding {
	if min <= 0 {
		return fs
	}
	var out []types.Finding
	for _, f := range fs {
		if r, ok := set.Get(f.Rule); ok && r.Priority < min {
			continue
		}
		out = append(out, f)
	}
	return out
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob configuration. Include globs are comma-separated and, if provided, act as
// a positive filter. Exclude globs are subtracted last. Matching uses forward-slash
// semantics via doublestar.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 {
		matched := matchAnyGlob(rp, includes)
		if !matched {
			return false
		}
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
			out = append(out, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
