package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/doITmagic/thinktest-analyzer/internal/config"
	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress/elementor"
)

// MaxWorkers caps per-file concurrency regardless of configuration.
const MaxWorkers = 64

// Scanner analyzes every PHP file of a plugin directory
type Scanner struct {
	analyzer     *wordpress.Analyzer
	cache        *ResultCache
	include      []string
	exclude      []string
	workers      int
	maxFileBytes int64
	logger       logrus.FieldLogger
}

// ScanOption configures a Scanner
type ScanOption func(*Scanner)

// WithAnalyzer sets the WordPress analyzer used for each file
func WithAnalyzer(a *wordpress.Analyzer) ScanOption {
	return func(s *Scanner) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// WithCache enables result reuse for unchanged files
func WithCache(c *ResultCache) ScanOption {
	return func(s *Scanner) { s.cache = c }
}

// WithInclude replaces the include globs
func WithInclude(patterns ...string) ScanOption {
	return func(s *Scanner) { s.include = patterns }
}

// WithExclude replaces the exclude globs
func WithExclude(patterns ...string) ScanOption {
	return func(s *Scanner) { s.exclude = patterns }
}

// WithWorkers bounds concurrency; 0 means GOMAXPROCS
func WithWorkers(n int) ScanOption {
	return func(s *Scanner) { s.workers = n }
}

// WithMaxFileBytes skips larger files; 0 disables the limit
func WithMaxFileBytes(n int64) ScanOption {
	return func(s *Scanner) { s.maxFileBytes = n }
}

// WithScanLogger sets the scanner logger
func WithScanLogger(logger logrus.FieldLogger) ScanOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScanner creates a new scanner with the given options.
func NewScanner(opts ...ScanOption) *Scanner {
	defaults := config.DefaultConfig().Analysis
	s := &Scanner{
		analyzer: wordpress.NewAnalyzer(),
		include:  defaults.Include,
		exclude:  defaults.Exclude,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewScannerFromConfig builds a scanner from the analysis settings.
func NewScannerFromConfig(cfg config.AnalysisConfig, logger logrus.FieldLogger) (*Scanner, error) {
	v, err := wordpress.ParseVersion(cfg.PHPVersion)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	analyzer := wordpress.NewAnalyzer(wordpress.WithPHPVersion(v), wordpress.WithLogger(logger))

	return NewScanner(
		WithAnalyzer(analyzer),
		WithCache(NewResultCache(cfg.CacheTTL)),
		WithInclude(cfg.Include...),
		WithExclude(cfg.Exclude...),
		WithWorkers(cfg.Workers),
		WithMaxFileBytes(cfg.MaxFileBytes),
		WithScanLogger(logger),
	), nil
}

// Scan analyzes every matching file under root. Files are returned sorted
// by path. Per-file failures are reported in Errors; the returned error is
// only set for an unusable root or a cancelled context.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	startTime := time.Now()

	absRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	if n := s.cache.CleanExpired(); n > 0 {
		s.logger.WithField("entries", n).Debug("dropped expired cache entries")
	}

	result := &ScanResult{
		Root:   absRoot,
		Files:  []FileResult{},
		Errors: []ScanError{},
	}

	paths, skipped, discoveryErrs := s.discover(ctx, absRoot)
	result.Errors = append(result.Errors, discoveryErrs...)
	result.Stats.Skipped = skipped
	if err := ctx.Err(); err != nil {
		return result, err
	}

	files, readErrs := s.analyzeParallel(ctx, absRoot, paths)
	result.Files = files
	result.Errors = append(result.Errors, readErrs...)

	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})

	for _, f := range files {
		result.Stats.Files++
		if f.Analysis.AnalysisMethod == wordpress.MethodAST {
			result.Stats.ASTParsed++
		} else {
			result.Stats.RegexFallback++
		}
		if f.Cached {
			result.Stats.Cached++
		}
		if f.Elementor != nil {
			result.Stats.ElementorWidgets++
		}
	}
	result.Stats.Duration = time.Since(startTime)

	s.logger.WithFields(logrus.Fields{
		"root":           absRoot,
		"files":          result.Stats.Files,
		"regex_fallback": result.Stats.RegexFallback,
		"errors":         len(result.Errors),
		"duration":       result.Stats.Duration,
	}).Debug("plugin scan complete")

	return result, ctx.Err()
}

// ScanCombined reads every matching file under root, concatenates them into
// one repository document and analyzes it in multi-file mode. An empty
// repoID defaults to DefaultRepoID(root).
func (s *Scanner) ScanCombined(ctx context.Context, root, repoID string) (*wordpress.AnalysisResult, error) {
	absRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	if repoID == "" {
		repoID = DefaultRepoID(absRoot)
	}

	paths, _, discoveryErrs := s.discover(ctx, absRoot)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, e := range discoveryErrs {
		s.logger.WithError(e.Err).WithField("path", e.Path).Warn("skipping unreadable path")
	}

	files := make([]SourceFile, 0, len(paths))
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(absRoot, filepath.FromSlash(rel)))
		if err != nil {
			s.logger.WithError(err).WithField("path", rel).Warn("skipping unreadable file")
			continue
		}
		files = append(files, SourceFile{Path: rel, Content: string(data)})
	}

	return s.analyzer.AnalyzePlugin(BuildRepositoryContent(files), repoID), nil
}

// BuildRepositoryContent concatenates files into the "// File: <path>"
// repository layout understood by AnalyzePlugin.
func BuildRepositoryContent(files []SourceFile) string {
	segments := make([]wordpress.Segment, len(files))
	for i, f := range files {
		segments[i] = wordpress.Segment{Path: f.Path, Content: f.Content}
	}
	return wordpress.JoinSegments(segments)
}

func resolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", fmt.Errorf("cannot scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("cannot scan %s: not a directory", root)
	}
	return absRoot, nil
}

// discover returns the slash-relative paths of files to analyze, in walk
// order, plus the number of files skipped for size.
func (s *Scanner) discover(ctx context.Context, root string) ([]string, int, []ScanError) {
	var (
		paths   []string
		skipped int
		errs    []ScanError
	)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if err != nil {
			errs = append(errs, ScanError{Path: rel, Phase: "discovery", Err: err})
			if d != nil && d.IsDir() && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel != "." && s.excluded(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !matchesAny(s.include, rel) || s.excluded(rel, false) {
			return nil
		}

		if s.maxFileBytes > 0 {
			info, err := d.Info()
			if err == nil && info.Size() > s.maxFileBytes {
				s.logger.WithFields(logrus.Fields{"path": rel, "size": info.Size()}).Debug("skipping oversized file")
				skipped++
				return nil
			}
		}

		paths = append(paths, rel)
		return nil
	})
	if walkErr != nil && ctx.Err() == nil {
		errs = append(errs, ScanError{Phase: "discovery", Err: walkErr})
	}

	return paths, skipped, errs
}

func (s *Scanner) analyzeParallel(ctx context.Context, root string, paths []string) ([]FileResult, []ScanError) {
	workers := s.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, gCtx := errgroup.WithContext(ctx)

	var (
		mu         sync.Mutex
		files      = make([]FileResult, 0, len(paths))
		scanErrors = make([]ScanError, 0)
	)

	for _, rel := range paths {
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			file, scanErr := s.analyzeFile(root, rel)

			mu.Lock()
			defer mu.Unlock()

			if scanErr != nil {
				scanErrors = append(scanErrors, *scanErr)
				return nil
			}
			files = append(files, file)
			return nil
		})
	}

	_ = g.Wait()

	// Goroutines finish in arbitrary order.
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, scanErrors
}

func (s *Scanner) analyzeFile(root, rel string) (FileResult, *ScanError) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return FileResult{}, &ScanError{Path: rel, Phase: "read", Err: err}
	}
	content := string(data)

	file := FileResult{Path: rel}
	if cached := s.cache.Get(rel, content); cached != nil {
		file.Analysis = cached
		file.Cached = true
	} else {
		file.Analysis = s.analyzer.AnalyzePlugin(content, rel)
		s.cache.Set(rel, content, file.Analysis)
	}

	if widget := elementor.Analyze(content); widget.IsElementorWidget {
		file.Elementor = widget
	}
	return file, nil
}

// excluded reports whether a slash-relative path matches an exclude glob.
// Directories are also tried with a trailing slash, so "vendor/**" prunes
// the vendor directory itself.
func (s *Scanner) excluded(rel string, isDir bool) bool {
	if matchesAny(s.exclude, rel) {
		return true
	}
	return isDir && matchesAny(s.exclude, rel+"/")
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
