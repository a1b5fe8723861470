package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	formatJSON = "json"
	formatText = "text"
)

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "f", formatJSON, "Output format: json or text")
}

func checkFormat(format string) error {
	if format != formatJSON && format != formatText {
		return fmt.Errorf("unknown format %q (want json or text)", format)
	}
	return nil
}

// writeResult prints v as indented JSON, or the text rendering
func writeResult(w io.Writer, format string, v any, text func() string) error {
	if format == formatText {
		_, err := io.WriteString(w, text())
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readSource reads a PHP file, or stdin when path is "-"
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// sourceName is the filename reported for an input path
func sourceName(path, override string) string {
	if override != "" {
		return override
	}
	if path == "-" {
		return "stdin.php"
	}
	return filepath.Base(path)
}
