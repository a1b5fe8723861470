package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
	"github.com/doITmagic/thinktest-analyzer/internal/workspace"
)

// Tool is an MCP tool taking loosely typed JSON arguments
type Tool interface {
	Name() string
	Description() string
	InputSchema() *jsonschema.Schema
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// RegisterAll adds every analyzer tool to server. analyze_plugin uses the
// typed handler API; the others go through the generic Tool adapter.
func RegisterAll(server *mcp.Server, analyzer *wordpress.Analyzer, scanner *workspace.Scanner, logger logrus.FieldLogger) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	RegisterAnalyzePluginTyped(server, NewAnalyzePluginTool(analyzer))
	Register(server, NewAnalyzeElementorWidgetTool(), logger)
	Register(server, NewScanPluginDirectoryTool(scanner), logger)
}

// Register adapts a Tool to the MCP server. Execution errors are reported
// to the client as tool errors, not protocol errors.
func Register(server *mcp.Server, tool Tool, logger logrus.FieldLogger) {
	server.AddTool(&mcp.Tool{
		Name:        tool.Name(),
		Description: tool.Description(),
		InputSchema: tool.InputSchema(),
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]interface{}{}
		if req.Params != nil && req.Params.Arguments != nil {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		result, err := tool.Execute(ctx, args)
		if err != nil {
			logger.WithError(err).WithField("tool", tool.Name()).Warn("tool call failed")
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{
					&mcp.TextContent{Text: err.Error()},
				},
			}, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: result},
			},
		}, nil
	})
}

// stringArg returns a trimmed string argument, or "" when absent
func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func boolArg(args map[string]interface{}, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// outputFormat reads the optional output_format argument: markdown (default) or json
func outputFormat(args map[string]interface{}) (string, error) {
	format := strings.ToLower(stringArg(args, "output_format"))
	switch format {
	case "":
		return "markdown", nil
	case "markdown", "json":
		return format, nil
	default:
		return "", fmt.Errorf("output_format must be 'markdown' or 'json', got %q", format)
	}
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

var outputFormatSchema = &jsonschema.Schema{
	Type:        "string",
	Description: "Response format: 'markdown' (default) or 'json'",
	Enum:        []any{"markdown", "json"},
}
