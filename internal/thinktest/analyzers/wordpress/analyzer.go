package wordpress

import (
	"errors"

	"github.com/VKCOM/php-parser/pkg/version"
	"github.com/sirupsen/logrus"
)

// Analyzer extracts WordPress facts from plugin source. It holds no state
// between calls and is safe for concurrent use.
type Analyzer struct {
	phpVersion *version.Version
	logger     logrus.FieldLogger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithPHPVersion sets the grammar version handed to the parser.
// Versions the grammar does not support are ignored.
func WithPHPVersion(v *version.Version) Option {
	return func(a *Analyzer) {
		if v != nil && v.Validate() == nil {
			a.phpVersion = v
		}
	}
}

// WithLogger sets the logger used to report parse fallbacks
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates a new WordPress plugin analyzer
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		phpVersion: &version.Version{Major: 8, Minor: 0},
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzePlugin analyzes a single PHP file, or every file of a concatenated
// repository when filename is an owner/repo@branch identifier and code
// carries "// File: " markers. It never fails: source the parser rejects is
// analyzed with regular expressions instead.
func (a *Analyzer) AnalyzePlugin(code, filename string) *AnalysisResult {
	if IsMultiFile(code, filename) {
		return a.analyzeRepository(code, filename)
	}
	result, _ := a.analyzeFile(code, filename)
	return result
}

// analyzeRepository analyzes every segment on its own and concatenates the
// facts in split order. Line numbers stay relative to each segment.
func (a *Analyzer) analyzeRepository(code, filename string) *AnalysisResult {
	result := newResult(filename)
	result.Files = []FileSummary{}
	parsed, failed := 0, 0

	for _, segment := range SplitSegments(code) {
		fileResult, parseErr := a.analyzeFile(segment.Content, segment.Path)

		summary := FileSummary{Path: segment.Path, AnalysisMethod: fileResult.AnalysisMethod}
		if parseErr != nil {
			failed++
			summary.ParseError = parseErr.Error()
		} else {
			parsed++
		}
		result.Files = append(result.Files, summary)

		result.append(fileResult)
		// facts are concatenated as-is; recommendations keep one entry per type
		result.TestRecommendations = mergeRecommendations(result.TestRecommendations, fileResult.TestRecommendations)
	}

	if len(result.TestRecommendations) == 0 {
		result.TestRecommendations = baselineRecommendations()
	}
	if failed > 0 {
		result.AnalysisMethod = MethodRegexFallback
	}
	result.ParsedFileCount = &parsed
	result.FailedFileCount = &failed

	a.logger.WithFields(logrus.Fields{
		"filename": filename,
		"parsed":   parsed,
		"failed":   failed,
	}).Debug("Analyzed repository content")

	return result
}

// analyzeFile runs the AST path and falls back to regular expressions when
// the parser reports a syntax error, which is then returned alongside.
func (a *Analyzer) analyzeFile(code, filename string) (*AnalysisResult, *ParseError) {
	root, err := Parse([]byte(code), a.phpVersion)
	if err != nil {
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			parseErr = &ParseError{Msg: err.Error()}
		}
		a.logger.WithFields(logrus.Fields{
			"filename": filename,
			"line":     parseErr.Line,
			"error":    parseErr.Msg,
		}).Debug("AST parsing failed, using regex fallback")
		return analyzeWithRegex(code, filename), parseErr
	}

	result := newResult(filename)
	result.TestRecommendations = newFactCollector(result).collect(root)
	return result, nil
}

var defaultAnalyzer = NewAnalyzer()

// AnalyzePlugin analyzes code with a default Analyzer
func AnalyzePlugin(code, filename string) *AnalysisResult {
	return defaultAnalyzer.AnalyzePlugin(code, filename)
}
