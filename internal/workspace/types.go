package workspace

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress/elementor"
)

// SourceFile is one plugin file read from disk, addressed by its
// slash-separated path relative to the scan root.
type SourceFile struct {
	Path    string
	Content string
}

// FileResult holds the analysis of a single plugin file
type FileResult struct {
	Path     string                    `json:"path"`
	Analysis *wordpress.AnalysisResult `json:"analysis"`

	// Elementor is set only for files detected as Elementor widgets
	Elementor *elementor.WidgetAnalysis `json:"elementor,omitempty"`

	// Cached reports whether the analysis came from the result cache
	Cached bool `json:"cached,omitempty"`
}

// ScanError describes a file that could not be scanned
type ScanError struct {
	// Path is relative to the scan root (may be empty for non-file errors)
	Path string

	// Phase is "discovery" or "read"
	Phase string

	Err error
}

// Error implements the error interface.
func (e ScanError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Phase, e.Path, e.Err)
}

// MarshalJSON renders the wrapped error as its message.
func (e ScanError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Path  string `json:"path,omitempty"`
		Phase string `json:"phase"`
		Error string `json:"error"`
	}{e.Path, e.Phase, msg})
}

// ScanStats provides statistics about the scan operation.
type ScanStats struct {
	// Files is the number of files analyzed.
	Files int `json:"files"`

	// ASTParsed counts files the PHP parser accepted.
	ASTParsed int `json:"ast_parsed"`

	// RegexFallback counts files analyzed by the pattern fallback.
	RegexFallback int `json:"regex_fallback"`

	// Skipped counts files over the size limit.
	Skipped int `json:"skipped"`

	// Cached counts files served from the result cache.
	Cached int `json:"cached"`

	// ElementorWidgets counts files detected as Elementor widgets.
	ElementorWidgets int `json:"elementor_widgets"`

	Duration time.Duration `json:"duration"`
}

// ScanResult is the outcome of scanning a plugin directory
type ScanResult struct {
	Root   string       `json:"root"`
	Files  []FileResult `json:"files"`
	Errors []ScanError  `json:"errors"`
	Stats  ScanStats    `json:"stats"`
}
