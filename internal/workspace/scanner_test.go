package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/doITmagic/thinktest-analyzer/internal/config"
	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
)

const mainPlugin = `<?php
/*
 * Plugin Name: Acme Forms
 */
add_action('init', 'acme_init');
add_action('wp_ajax_acme_submit', 'acme_submit');

function acme_init() {
    register_post_type('acme_form');
}
`

const restModule = `<?php
class Acme_Rest {
    public function routes() {
        register_rest_route('acme/v1', '/forms', array());
    }
}
`

const brokenModule = `<?php
function acme_broken( {
    add_action('init', 'acme_broken_init');
`

const widgetModule = `<?php
class Acme_Widget extends \Elementor\Widget_Base {
    public function get_name() { return 'acme-widget'; }
}
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newPluginTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"acme-forms.php":             mainPlugin,
		"includes/class-rest.php":    restModule,
		"includes/broken.php":        brokenModule,
		"widgets/acme-widget.php":    widgetModule,
		"vendor/lib/autoload.php":    "<?php add_action('vendor_hook', 'x');",
		"assets/app.js":              "console.log('not php')",
		"tests/test-acme-forms.php":  "<?php class Test_Acme extends WP_UnitTestCase {}",
		"node_modules/pkg/index.php": "<?php",
	})
	return root
}

func TestScan_AnalyzesMatchingFiles(t *testing.T) {
	defer goleak.VerifyNone(t)
	root := newPluginTree(t)

	result, err := NewScanner().Scan(context.Background(), root)
	require.NoError(t, err)

	paths := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"acme-forms.php",
		"includes/broken.php",
		"includes/class-rest.php",
		"widgets/acme-widget.php",
	}, paths, "vendor, node_modules, tests and non-PHP files are excluded; output is sorted")

	assert.Equal(t, 4, result.Stats.Files)
	assert.Equal(t, 3, result.Stats.ASTParsed)
	assert.Equal(t, 1, result.Stats.RegexFallback)
	assert.Equal(t, 1, result.Stats.ElementorWidgets)
	assert.Empty(t, result.Errors)

	main := result.Files[0].Analysis
	assert.Equal(t, "acme-forms.php", main.Filename)
	require.Len(t, main.AjaxHandlers, 1)
	assert.Equal(t, "acme_submit", main.AjaxHandlers[0].Action)

	broken := result.Files[1].Analysis
	assert.Equal(t, wordpress.MethodRegexFallback, broken.AnalysisMethod)

	widget := result.Files[3]
	require.NotNil(t, widget.Elementor)
	require.NotNil(t, widget.Elementor.WidgetName)
	assert.Equal(t, "acme-widget", *widget.Elementor.WidgetName)
	assert.Nil(t, result.Files[0].Elementor)
}

func TestScan_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"small.php": "<?php add_action('init', 'a');",
		"large.php": "<?php\n" + strings.Repeat("// padding\n", 200),
	})

	result, err := NewScanner(WithMaxFileBytes(100)).Scan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "small.php", result.Files[0].Path)
	assert.Equal(t, 1, result.Stats.Skipped)
}

func TestScan_CustomGlobs(t *testing.T) {
	root := newPluginTree(t)

	result, err := NewScanner(
		WithInclude("includes/**/*.php"),
		WithExclude("**/broken.php"),
		WithWorkers(1),
	).Scan(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "includes/class-rest.php", result.Files[0].Path)
}

func TestScan_UsesResultCache(t *testing.T) {
	root := newPluginTree(t)
	cache := NewResultCache(time.Minute)
	scanner := NewScanner(WithCache(cache))

	first, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Stats.Cached)
	assert.Equal(t, 4, cache.Size())

	second, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Stats.Cached)
	assert.Same(t, first.Files[0].Analysis, second.Files[0].Analysis)

	// an edited file is analyzed again
	writeFiles(t, root, map[string]string{"acme-forms.php": mainPlugin + "\nfunction acme_extra() {}\n"})
	third, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 3, third.Stats.Cached)
	assert.False(t, third.Files[0].Cached)
	assert.Len(t, third.Files[0].Analysis.Functions, 2)
}

func TestScan_DropsExpiredCacheEntries(t *testing.T) {
	root := newPluginTree(t)
	cache := NewResultCache(20 * time.Millisecond)
	scanner := NewScanner(WithCache(cache))

	_, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 4, cache.Size())

	// entries of a deleted file must not outlive their TTL
	require.NoError(t, os.Remove(filepath.Join(root, "includes", "broken.php")))
	time.Sleep(40 * time.Millisecond)

	_, err = scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 3, cache.Size())
}

func TestScan_InvalidRoot(t *testing.T) {
	_, err := NewScanner().Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "plugin.php")
	require.NoError(t, os.WriteFile(file, []byte("<?php"), 0o644))
	_, err = NewScanner().Scan(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestScan_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	root := newPluginTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewScanner().Scan(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Files)
}

func TestScanCombined(t *testing.T) {
	root := newPluginTree(t)

	result, err := NewScanner().ScanCombined(context.Background(), root, "acme/forms@main")
	require.NoError(t, err)

	assert.Equal(t, "acme/forms@main", result.Filename)
	require.NotNil(t, result.ParsedFileCount)
	require.NotNil(t, result.FailedFileCount)
	assert.Equal(t, 3, *result.ParsedFileCount)
	assert.Equal(t, 1, *result.FailedFileCount)
	assert.Equal(t, wordpress.MethodRegexFallback, result.AnalysisMethod)
	require.Len(t, result.Files, 4)
	assert.Equal(t, "acme-forms.php", result.Files[0].Path)

	require.Len(t, result.RestEndpoints, 1)
	assert.Equal(t, "acme/v1", result.RestEndpoints[0].Namespace)

	types := make([]string, 0, len(result.TestRecommendations))
	for _, r := range result.TestRecommendations {
		types = append(types, r.Type)
	}
	assert.Contains(t, types, "ajax_tests")
	assert.Contains(t, types, "rest_api_tests")
}

func TestScanCombined_CancelledContext(t *testing.T) {
	root := newPluginTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewScanner().ScanCombined(ctx, root, "acme/forms@main")
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestScanCombined_DefaultRepoID(t *testing.T) {
	root := filepath.Join(t.TempDir(), "acme-forms")
	writeFiles(t, root, map[string]string{"acme-forms.php": mainPlugin})

	result, err := NewScanner().ScanCombined(context.Background(), root, "")
	require.NoError(t, err)
	assert.Equal(t, "acme-forms@local", result.Filename)
	require.NotNil(t, result.ParsedFileCount)
	assert.Equal(t, 1, *result.ParsedFileCount)
}

func TestBuildRepositoryContent(t *testing.T) {
	content := BuildRepositoryContent([]SourceFile{
		{Path: "a.php", Content: "<?php echo 1;"},
		{Path: "lib/b.php", Content: "<?php echo 2;"},
	})

	assert.Equal(t, "// File: a.php\n<?php echo 1;\n\n// File: lib/b.php\n<?php echo 2;", content)
	assert.True(t, wordpress.IsMultiFile(content, "o/r@b"))

	segments := wordpress.SplitSegments(content)
	require.Len(t, segments, 2)
	assert.Equal(t, "lib/b.php", segments[1].Path)
}

func TestNewScannerFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Analysis
	cfg.PHPVersion = "7.4"

	scanner, err := NewScannerFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, scanner.cache)
	assert.Equal(t, cfg.Exclude, scanner.exclude)

	cfg.PHPVersion = "not-a-version"
	_, err = NewScannerFromConfig(cfg, nil)
	require.Error(t, err)
}

func TestScanError(t *testing.T) {
	err := ScanError{Path: "a.php", Phase: "read", Err: os.ErrPermission}
	assert.Equal(t, "[read] a.php: permission denied", err.Error())

	data, jsonErr := err.MarshalJSON()
	require.NoError(t, jsonErr)
	assert.JSONEq(t, `{"path":"a.php","phase":"read","error":"permission denied"}`, string(data))
}
