package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Start from defaults so a partial file only overrides what it sets
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			PHPVersion:   wordpress.DefaultPHPVersion,
			Workers:      0,
			MaxFileBytes: 2 << 20,
			Include:      []string{"**/*.php"},
			Exclude:      []string{"vendor/**", "node_modules/**", ".git/**", "tests/**"},
			CacheTTL:     10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			MaxSizeMB: 10,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
		Server: ServerConfig{
			Name:    "thinktest",
			Version: "1.0.0",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("THINKTEST_PHP_VERSION"); v != "" {
		cfg.Analysis.PHPVersion = v
	}
	if v := os.Getenv("THINKTEST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.Workers = n
		}
	}

	// Logging overrides
	if v := os.Getenv("THINKTEST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("THINKTEST_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("THINKTEST_LOG_PATH"); v != "" {
		cfg.Logging.Path = v
	}

	if v := os.Getenv("THINKTEST_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.Debounce = d
		}
	}
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Analysis.PHPVersion == "" {
		cfg.Analysis.PHPVersion = wordpress.DefaultPHPVersion
	}
	if _, err := wordpress.ParseVersion(cfg.Analysis.PHPVersion); err != nil {
		return fmt.Errorf("analysis.php_version: %w", err)
	}
	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative")
	}
	if cfg.Analysis.MaxFileBytes < 0 {
		return fmt.Errorf("analysis.max_file_bytes must not be negative")
	}
	for _, pattern := range append(append([]string{}, cfg.Analysis.Include...), cfg.Analysis.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if _, err := logrus.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch cfg.Logging.Format {
	case "":
		cfg.Logging.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}

	if cfg.Logging.MaxSizeMB < 0 {
		return fmt.Errorf("logging.max_size_mb must not be negative")
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 2 * time.Second
	}

	return nil
}
