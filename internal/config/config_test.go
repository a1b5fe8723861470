package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatalf("DefaultConfig() returned nil")
	}

	if cfg.Analysis.PHPVersion != "8.0" {
		t.Errorf("Analysis.PHPVersion = %q, want %q", cfg.Analysis.PHPVersion, "8.0")
	}
	if len(cfg.Analysis.Include) != 1 || cfg.Analysis.Include[0] != "**/*.php" {
		t.Errorf("Analysis.Include = %#v, want [**/*.php]", cfg.Analysis.Include)
	}
	if cfg.Analysis.CacheTTL != 10*time.Minute {
		t.Errorf("Analysis.CacheTTL = %v, want %v", cfg.Analysis.CacheTTL, 10*time.Minute)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Watch.Debounce = %v, want %v", cfg.Watch.Debounce, 2*time.Second)
	}
	if cfg.Server.Name != "thinktest" {
		t.Errorf("Server.Name = %q, want %q", cfg.Server.Name, "thinktest")
	}
}

func TestLoadMissingFileReturnsDefaultConfig(t *testing.T) {
	tempDir := t.TempDir()
	missing := filepath.Join(tempDir, "no-such-config.yaml")

	cfg, err := Load(missing)
	if err != nil {
		t.Fatalf("Load(%q) returned error: %v", missing, err)
	}
	if cfg == nil {
		t.Fatalf("Load(%q) returned nil config", missing)
	}

	if cfg.Analysis.PHPVersion != "8.0" {
		t.Errorf("Analysis.PHPVersion = %q, want %q", cfg.Analysis.PHPVersion, "8.0")
	}
}

func TestLoadParsesYAMLAndValidates(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "thinktest.yaml")

	yamlContent := []byte(`
analysis:
  php_version: "7.4"
  workers: 4
  exclude:
    - "build/**"
logging:
  level: debug
  format: json
watch:
  debounce: 500ms
`)
	if err := os.WriteFile(path, yamlContent, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) returned error: %v", path, err)
	}

	if cfg.Analysis.PHPVersion != "7.4" {
		t.Errorf("Analysis.PHPVersion = %q, want %q", cfg.Analysis.PHPVersion, "7.4")
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("Analysis.Workers = %d, want %d", cfg.Analysis.Workers, 4)
	}
	if len(cfg.Analysis.Exclude) != 1 || cfg.Analysis.Exclude[0] != "build/**" {
		t.Errorf("Analysis.Exclude = %#v, want [build/**]", cfg.Analysis.Exclude)
	}
	// keys absent from the file keep their defaults
	if len(cfg.Analysis.Include) != 1 || cfg.Analysis.Include[0] != "**/*.php" {
		t.Errorf("Analysis.Include = %#v, want default", cfg.Analysis.Include)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want %v", cfg.Watch.Debounce, 500*time.Millisecond)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("analysis: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("Load(broken yaml) = nil error, want non-nil")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv("THINKTEST_PHP_VERSION", "8.1")
	t.Setenv("THINKTEST_WORKERS", "3")
	t.Setenv("THINKTEST_LOG_LEVEL", "WARN")
	t.Setenv("THINKTEST_LOG_FORMAT", "json")
	t.Setenv("THINKTEST_LOG_PATH", "/tmp/thinktest.log")
	t.Setenv("THINKTEST_WATCH_DEBOUNCE", "750ms")

	applyEnvOverrides(cfg)

	if cfg.Analysis.PHPVersion != "8.1" {
		t.Errorf("Analysis.PHPVersion = %q, want %q", cfg.Analysis.PHPVersion, "8.1")
	}
	if cfg.Analysis.Workers != 3 {
		t.Errorf("Analysis.Workers = %d, want %d", cfg.Analysis.Workers, 3)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Logging.Path != "/tmp/thinktest.log" {
		t.Errorf("Logging.Path = %q, want %q", cfg.Logging.Path, "/tmp/thinktest.log")
	}
	if cfg.Watch.Debounce != 750*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want %v", cfg.Watch.Debounce, 750*time.Millisecond)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty php version defaults", func(c *Config) { c.Analysis.PHPVersion = "" }, false},
		{"bad php version", func(c *Config) { c.Analysis.PHPVersion = "eight" }, true},
		{"oldest php 7", func(c *Config) { c.Analysis.PHPVersion = "7.0" }, false},
		{"php 8.2 unsupported by grammar", func(c *Config) { c.Analysis.PHPVersion = "8.2" }, true},
		{"php 9 unsupported by grammar", func(c *Config) { c.Analysis.PHPVersion = "9.0" }, true},
		{"negative workers", func(c *Config) { c.Analysis.Workers = -1 }, true},
		{"bad glob", func(c *Config) { c.Analysis.Exclude = []string{"[unclosed"} }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "chatty" }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"negative log size", func(c *Config) { c.Logging.MaxSizeMB = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr && err == nil {
				t.Fatalf("validate() = nil error, want non-nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("validate() returned unexpected error: %v", err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thinktest.log")
	logger, closer, err := LoggingConfig{Level: "debug", Format: "json", Path: path}.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() returned error: %v", err)
	}
	defer closer.Close()

	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want %v", logger.GetLevel(), logrus.DebugLevel)
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want *logrus.JSONFormatter", logger.Formatter)
	}

	logger.Info("hello")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("log file is empty, want the logged entry")
	}
}

func TestRotateLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "thinktest.log")

	// Generate content larger than the 1MB limit
	var sb strings.Builder
	line := "This is a test log line number %d with some padding data to increase size.\n"
	targetSize := 1024*1024 + (100 * 1024)
	for i := 0; sb.Len() < targetSize; i++ {
		sb.WriteString(fmt.Sprintf(line, i))
	}
	originalContent := sb.String()
	if err := os.WriteFile(logPath, []byte(originalContent), 0o644); err != nil {
		t.Fatalf("Failed to write data: %v", err)
	}

	if err := rotateLogFile(logPath, 1); err != nil {
		t.Fatalf("rotateLogFile() returned error: %v", err)
	}

	newContentBytes, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read rotated file: %v", err)
	}
	newContent := string(newContentBytes)

	expectedMinDelete := len(originalContent) / 10
	if len(newContent) > len(originalContent)-expectedMinDelete {
		t.Errorf("File didn't shrink enough. Expected to delete at least %d bytes, but size is %d (original %d)",
			expectedMinDelete, len(newContent), len(originalContent))
	}

	// starts on a line boundary
	if !strings.HasPrefix(newContent, "This is a test log line") {
		t.Errorf("Rotated log does not start with expected log line prefix. Starts with: %q", newContent[:50])
	}
	if !strings.HasSuffix(newContent, "data to increase size.\n") {
		t.Errorf("Rotated log end is corrupted")
	}
}

func TestRotateLogFile_UnderLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "small.log")
	content := "Small file content\nLine 2\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := rotateLogFile(logPath, 1); err != nil {
		t.Fatalf("rotateLogFile() returned error: %v", err)
	}

	newContent, _ := os.ReadFile(logPath)
	if string(newContent) != content {
		t.Error("File was rotated but should not have been!")
	}

	if err := rotateLogFile(filepath.Join(t.TempDir(), "missing.log"), 1); err != nil {
		t.Errorf("rotateLogFile(missing) returned error: %v", err)
	}
}
