package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the application logger. Logs go to stderr unless a path
// is configured; stdout is left for results and the MCP stdio protocol. The
// returned closer releases the log file, if any.
func (c LoggingConfig) NewLogger() (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if c.Path == "" {
		return logger, io.NopCloser(nil), nil
	}

	if c.MaxSizeMB > 0 {
		if err := rotateLogFile(c.Path, c.MaxSizeMB); err != nil {
			logger.WithError(err).Warn("failed to trim log file")
		}
	}

	f, err := os.OpenFile(c.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return logger, io.NopCloser(nil), fmt.Errorf("failed to open log file %s: %w", c.Path, err)
	}
	logger.SetOutput(f)
	return logger, f, nil
}

// rotateLogFile drops the oldest tenth of the file, cut at a line boundary,
// when it is larger than maxMB megabytes. A missing file is not an error.
func rotateLogFile(path string, maxMB int) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() <= int64(maxMB)*1024*1024 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cut := len(data) / 10
	if i := bytes.IndexByte(data[cut:], '\n'); i >= 0 {
		cut += i + 1
	} else {
		cut = len(data)
	}

	return os.WriteFile(path, data[cut:], info.Mode().Perm())
}
