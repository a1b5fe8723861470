package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress/elementor"
)

// AnalyzeElementorWidgetTool reports the metadata and controls of an Elementor widget class
type AnalyzeElementorWidgetTool struct{}

// NewAnalyzeElementorWidgetTool creates a new Elementor widget analysis tool
func NewAnalyzeElementorWidgetTool() *AnalyzeElementorWidgetTool {
	return &AnalyzeElementorWidgetTool{}
}

func (t *AnalyzeElementorWidgetTool) Name() string {
	return "analyze_elementor_widget"
}

func (t *AnalyzeElementorWidgetTool) Description() string {
	return "Analyze an Elementor widget PHP class: name, title, icon, categories, control sections, controls with types, defaults and conditions, render method and asset dependencies."
}

func (t *AnalyzeElementorWidgetTool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"code": {
				Type:        "string",
				Description: "PHP source of the widget class",
			},
			"output_format": outputFormatSchema,
		},
		Required: []string{"code"},
	}
}

func (t *AnalyzeElementorWidgetTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	format, err := outputFormat(args)
	if err != nil {
		return "", err
	}
	code, _ := args["code"].(string)
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("code is required")
	}

	widget := elementor.Analyze(code)
	if format == "json" {
		return toJSON(widget)
	}
	return FormatWidgetMarkdown(widget), nil
}
