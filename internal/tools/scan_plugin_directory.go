package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/doITmagic/thinktest-analyzer/internal/workspace"
)

// ScanPluginDirectoryTool analyzes every PHP file of a plugin on disk
type ScanPluginDirectoryTool struct {
	scanner *workspace.Scanner
}

// NewScanPluginDirectoryTool creates a new directory scan tool
func NewScanPluginDirectoryTool(scanner *workspace.Scanner) *ScanPluginDirectoryTool {
	if scanner == nil {
		scanner = workspace.NewScanner()
	}
	return &ScanPluginDirectoryTool{scanner: scanner}
}

func (t *ScanPluginDirectoryTool) Name() string {
	return "scan_plugin_directory"
}

func (t *ScanPluginDirectoryTool) Description() string {
	return "Scan a WordPress plugin directory and analyze each PHP file (vendor, node_modules and tests are skipped). " +
		"With combined=true the files are analyzed as one repository and a single merged result is returned."
}

func (t *ScanPluginDirectoryTool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"path": {
				Type:        "string",
				Description: "Absolute path of the plugin directory",
			},
			"combined": {
				Type:        "boolean",
				Description: "Analyze all files as one repository (default: false)",
			},
			"repo": {
				Type:        "string",
				Description: "Repository id owner/repo@branch for combined mode (default: <dirname>@<branch>)",
			},
			"output_format": outputFormatSchema,
		},
		Required: []string{"path"},
	}
}

func (t *ScanPluginDirectoryTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	format, err := outputFormat(args)
	if err != nil {
		return "", err
	}
	path := stringArg(args, "path")
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	if boolArg(args, "combined") {
		result, err := t.scanner.ScanCombined(ctx, path, stringArg(args, "repo"))
		if err != nil {
			return "", err
		}
		if format == "json" {
			return toJSON(result)
		}
		return FormatAnalysisMarkdown(result), nil
	}

	result, err := t.scanner.Scan(ctx, path)
	if err != nil {
		return "", err
	}
	if format == "json" {
		return toJSON(result)
	}
	return FormatScanMarkdown(result), nil
}
