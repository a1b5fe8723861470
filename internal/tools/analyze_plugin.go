package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
)

const defaultFilename = "plugin.php"

// AnalyzePluginTool extracts WordPress facts and test recommendations from PHP source
type AnalyzePluginTool struct {
	analyzer *wordpress.Analyzer
}

// NewAnalyzePluginTool creates a new plugin analysis tool
func NewAnalyzePluginTool(analyzer *wordpress.Analyzer) *AnalyzePluginTool {
	if analyzer == nil {
		analyzer = wordpress.NewAnalyzer()
	}
	return &AnalyzePluginTool{analyzer: analyzer}
}

func (t *AnalyzePluginTool) Name() string {
	return "analyze_plugin"
}

func (t *AnalyzePluginTool) Description() string {
	return "Analyze WordPress plugin PHP source: hooks, filters, AJAX handlers, REST routes, database and security calls, plus test recommendations. " +
		"Pass a single file, or a whole repository concatenated with '// File: <path>' markers and an 'owner/repo@branch' filename."
}

func (t *AnalyzePluginTool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"code": {
				Type:        "string",
				Description: "PHP source of the plugin file (or concatenated repository)",
			},
			"filename": {
				Type:        "string",
				Description: "File name, or owner/repo@branch for concatenated input (default: plugin.php)",
			},
			"output_format": outputFormatSchema,
		},
		Required: []string{"code"},
	}
}

// Analyze validates the input and runs the analyzer
func (t *AnalyzePluginTool) Analyze(code, filename string) (*wordpress.AnalysisResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("code is required")
	}
	if strings.TrimSpace(filename) == "" {
		filename = defaultFilename
	}
	return t.analyzer.AnalyzePlugin(code, filename), nil
}

func (t *AnalyzePluginTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	format, err := outputFormat(args)
	if err != nil {
		return "", err
	}
	code, _ := args["code"].(string)
	result, err := t.Analyze(code, stringArg(args, "filename"))
	if err != nil {
		return "", err
	}
	if format == "json" {
		return toJSON(result)
	}
	return FormatAnalysisMarkdown(result), nil
}

// AnalyzePluginInput is the typed input of analyze_plugin
type AnalyzePluginInput struct {
	Code     string `json:"code" jsonschema:"PHP source of the plugin file (or concatenated repository)"`
	Filename string `json:"filename,omitempty" jsonschema:"file name, or owner/repo@branch for concatenated input"`
}

// AnalyzePluginOutput is the typed output of analyze_plugin
type AnalyzePluginOutput struct {
	Summary string                    `json:"summary"`
	Result  *wordpress.AnalysisResult `json:"result"`
}

// RegisterAnalyzePluginTyped registers analyze_plugin using the typed
// ToolHandlerFor API from the MCP Go SDK.
func RegisterAnalyzePluginTyped(server *mcp.Server, tool *AnalyzePluginTool) {
	mcp.AddTool[AnalyzePluginInput, AnalyzePluginOutput](server, &mcp.Tool{
		Name:        tool.Name(),
		Description: tool.Description(),
	}, func(ctx context.Context, req *mcp.CallToolRequest, input AnalyzePluginInput) (*mcp.CallToolResult, AnalyzePluginOutput, error) {
		result, err := tool.Analyze(input.Code, input.Filename)
		if err != nil {
			return nil, AnalyzePluginOutput{}, err
		}
		return nil, AnalyzePluginOutput{
			Summary: FormatAnalysisMarkdown(result),
			Result:  result,
		}, nil
	})
}
