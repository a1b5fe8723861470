package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
	"github.com/doITmagic/thinktest-analyzer/internal/workspace"
)

const pluginSource = `<?php
add_action('wp_ajax_nopriv_acme_vote', 'acme_vote', 5);
add_filter('the_content', array($this, 'filter'));
register_rest_route('acme/v1', '/votes', array());

function acme_vote() {
    check_admin_referer('acme');
    update_option('acme_votes', sanitize_text_field($_POST['v']));
}
`

const widgetSource = `<?php
class Vote_Widget extends \Elementor\Widget_Base {
    public function get_name() { return 'acme-vote'; }
    protected function register_controls() {
        $this->start_controls_section('content', ['label' => 'Content', 'tab' => Controls_Manager::TAB_CONTENT]);
        $this->add_control('heading', ['label' => __('Heading', 'acme'), 'type' => Controls_Manager::TEXT]);
        $this->end_controls_section();
    }
    protected function render() {}
}
`

func TestAnalyzePluginTool_Validation(t *testing.T) {
	tool := NewAnalyzePluginTool(nil)
	ctx := context.Background()

	_, err := tool.Execute(ctx, map[string]interface{}{})
	require.Error(t, err, "missing code")

	_, err = tool.Execute(ctx, map[string]interface{}{"code": "   "})
	require.Error(t, err, "blank code")

	_, err = tool.Execute(ctx, map[string]interface{}{"code": "<?php", "output_format": "xml"})
	require.Error(t, err, "unknown format")
}

func TestAnalyzePluginTool_JSON(t *testing.T) {
	tool := NewAnalyzePluginTool(wordpress.NewAnalyzer())

	out, err := tool.Execute(context.Background(), map[string]interface{}{
		"code":          pluginSource,
		"output_format": "json",
	})
	require.NoError(t, err)

	var result wordpress.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "plugin.php", result.Filename)
	assert.Equal(t, wordpress.MethodAST, result.AnalysisMethod)
	require.Len(t, result.AjaxHandlers, 1)
	assert.True(t, result.AjaxHandlers[0].IsPublic)
	require.Len(t, result.Filters, 1)
	assert.Equal(t, "array_callback", result.Filters[0].Callback)
}

func TestAnalyzePluginTool_Markdown(t *testing.T) {
	tool := NewAnalyzePluginTool(nil)

	out, err := tool.Execute(context.Background(), map[string]interface{}{
		"code":     pluginSource,
		"filename": "acme-vote.php",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "# Plugin Analysis: acme-vote.php")
	assert.Contains(t, out, "## AJAX Handlers (1)")
	assert.Contains(t, out, "`nopriv_acme_vote` → `acme_vote` (public, line 2)")
	assert.Contains(t, out, "GET `acme/v1/votes`")
	assert.Contains(t, out, "**Rest Api Tests** [high]")
	assert.Contains(t, out, "- Options: 1")
	assert.Contains(t, out, "- Nonce Verification: 1")
	assert.Contains(t, out, "- Data Sanitization: 1")
}

func TestAnalyzeElementorWidgetTool(t *testing.T) {
	tool := NewAnalyzeElementorWidgetTool()
	ctx := context.Background()

	_, err := tool.Execute(ctx, map[string]interface{}{"code": ""})
	require.Error(t, err)

	out, err := tool.Execute(ctx, map[string]interface{}{"code": widgetSource})
	require.NoError(t, err)
	assert.Contains(t, out, "# Elementor Widget: acme-vote")
	assert.Contains(t, out, "## Content [Content]")
	assert.Contains(t, out, "- `heading` (TEXT) Heading")

	out, err = tool.Execute(ctx, map[string]interface{}{"code": "<?php echo 1;"})
	require.NoError(t, err)
	assert.Equal(t, "No Elementor widget detected.\n", out)
}

func TestScanPluginDirectoryTool(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "acme-vote.php"), []byte(pluginSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "widget.php"), []byte(widgetSource), 0o644))

	tool := NewScanPluginDirectoryTool(nil)
	ctx := context.Background()

	_, err := tool.Execute(ctx, map[string]interface{}{})
	require.Error(t, err, "missing path")

	out, err := tool.Execute(ctx, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Contains(t, out, "**Files:** 2 (2 parsed, 0 pattern fallback, 0 skipped, 0 cached)")
	assert.Contains(t, out, "**Elementor widgets:** 1")
	assert.Contains(t, out, "| acme-vote.php | ast |")

	out, err = tool.Execute(ctx, map[string]interface{}{
		"path":          root,
		"combined":      true,
		"repo":          "acme/vote@main",
		"output_format": "json",
	})
	require.NoError(t, err)

	var combined wordpress.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &combined))
	assert.Equal(t, "acme/vote@main", combined.Filename)
	require.NotNil(t, combined.ParsedFileCount)
	assert.Equal(t, 2, *combined.ParsedFileCount)
	assert.Len(t, combined.Files, 2)
}

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "thinktest", Version: "test"}, nil)
	RegisterAll(server, wordpress.NewAnalyzer(), workspace.NewScanner(), nil)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}

func TestMCPServer_ListTools(t *testing.T) {
	session := connect(t)

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, expected := range []string{"analyze_plugin", "analyze_elementor_widget", "scan_plugin_directory"} {
		assert.True(t, names[expected], "expected tool %q", expected)
	}
}

func TestMCPServer_CallAnalyzePlugin(t *testing.T) {
	session := connect(t)
	ctx := context.Background()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_plugin",
		Arguments: map[string]any{"code": pluginSource, "filename": "acme-vote.php"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out AnalyzePluginOutput
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))
	require.NotNil(t, out.Result)
	assert.Equal(t, "acme-vote.php", out.Result.Filename)
	assert.Contains(t, out.Summary, "# Plugin Analysis: acme-vote.php")

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_plugin",
		Arguments: map[string]any{"code": ""},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPServer_CallGenericToolError(t *testing.T) {
	session := connect(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "scan_plugin_directory",
		Arguments: map[string]any{"path": filepath.Join(t.TempDir(), "missing")},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "cannot scan")
}
