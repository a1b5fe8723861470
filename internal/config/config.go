package config

import (
	"time"
)

// Config represents the global application configuration
type Config struct {
	// Analysis configuration
	Analysis AnalysisConfig `yaml:"analysis"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Watch configuration (directory watch mode)
	Watch WatchConfig `yaml:"watch"`

	// Server configuration (MCP server identity)
	Server ServerConfig `yaml:"server"`
}

// AnalysisConfig contains plugin analysis settings
type AnalysisConfig struct {
	// PHPVersion is the grammar version handed to the AST parser ("major.minor")
	PHPVersion string `yaml:"php_version"`

	// Workers bounds per-file concurrency when scanning a directory.
	// 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// MaxFileBytes skips larger files when scanning. 0 disables the limit.
	MaxFileBytes int64 `yaml:"max_file_bytes"`

	Include []string `yaml:"include"` // doublestar patterns, slash-relative to the scan root
	Exclude []string `yaml:"exclude"` // doublestar patterns, slash-relative to the scan root

	// CacheTTL is how long analysis results are reused for unchanged content
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	Path   string `yaml:"path"`   // empty = stderr

	// MaxSizeMB trims the oldest entries of the log file once it grows past
	// this size. 0 disables trimming.
	MaxSizeMB int `yaml:"max_size_mb"`
}

// WatchConfig contains directory watcher settings
type WatchConfig struct {
	// Debounce is the quiet period after the last change before re-analysis
	Debounce time.Duration `yaml:"debounce"`
}

// ServerConfig contains MCP server settings
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}
