package tools

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress"
	"github.com/doITmagic/thinktest-analyzer/internal/thinktest/analyzers/wordpress/elementor"
	"github.com/doITmagic/thinktest-analyzer/internal/workspace"
)

// heading turns identifiers such as "rest_api_tests" into "Rest Api Tests".
// Casers are stateful, so each call gets its own.
func heading(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// FormatAnalysisMarkdown renders an analysis result for humans.
func FormatAnalysisMarkdown(r *wordpress.AnalysisResult) string {
	var response strings.Builder

	response.WriteString(fmt.Sprintf("# Plugin Analysis: %s\n\n", r.Filename))
	response.WriteString(fmt.Sprintf("**Analysis method:** %s\n", r.AnalysisMethod))
	if r.ParsedFileCount != nil && r.FailedFileCount != nil {
		response.WriteString(fmt.Sprintf("**Files:** %d parsed, %d fell back to pattern matching\n", *r.ParsedFileCount, *r.FailedFileCount))
	}
	response.WriteString("\n")

	if len(r.Functions) > 0 || len(r.Classes) > 0 {
		response.WriteString("## Declarations\n\n")
		for _, f := range r.Functions {
			response.WriteString(fmt.Sprintf("- function `%s` (line %d)\n", f.Name, f.Line))
		}
		for _, c := range r.Classes {
			response.WriteString(fmt.Sprintf("- class `%s` (line %d)\n", c.Name, c.Line))
		}
		response.WriteString("\n")
	}

	writeHooks(&response, "Actions", r.Hooks)
	writeHooks(&response, "Filters", r.Filters)

	if len(r.AjaxHandlers) > 0 {
		response.WriteString(fmt.Sprintf("## AJAX Handlers (%d)\n\n", len(r.AjaxHandlers)))
		for _, h := range r.AjaxHandlers {
			access := "authenticated"
			if h.IsPublic {
				access = "public"
			}
			response.WriteString(fmt.Sprintf("- `%s` → `%s` (%s, line %d)\n", h.Action, h.Callback, access, h.Line))
		}
		response.WriteString("\n")
	}

	if len(r.RestEndpoints) > 0 {
		response.WriteString(fmt.Sprintf("## REST Endpoints (%d)\n\n", len(r.RestEndpoints)))
		for _, e := range r.RestEndpoints {
			response.WriteString(fmt.Sprintf("- %s `%s%s` (line %d)\n", strings.Join(e.Methods, ","), e.Namespace, e.Route, e.Line))
		}
		response.WriteString("\n")
	}

	if len(r.DatabaseOperations) > 0 {
		counts := make(map[string]int)
		for _, op := range r.DatabaseOperations {
			counts[string(op.Category)]++
		}
		response.WriteString(fmt.Sprintf("## Database Operations (%d)\n\n", len(r.DatabaseOperations)))
		writeCounts(&response, counts)
	}

	if len(r.SecurityPatterns) > 0 {
		counts := make(map[string]int)
		for _, s := range r.SecurityPatterns {
			counts[string(s.Category)]++
		}
		response.WriteString(fmt.Sprintf("## Security Patterns (%d)\n\n", len(r.SecurityPatterns)))
		writeCounts(&response, counts)
	}

	if len(r.TestRecommendations) > 0 {
		response.WriteString("## Test Recommendations\n\n")
		for _, rec := range r.TestRecommendations {
			response.WriteString(fmt.Sprintf("- **%s** [%s]: %s\n", heading(rec.Type), rec.Priority, rec.Description))
		}
		response.WriteString("\n")
	}

	failed := 0
	for _, f := range r.Files {
		if f.ParseError != "" {
			failed++
		}
	}
	if failed > 0 {
		response.WriteString("## Parse Failures\n\n")
		for _, f := range r.Files {
			if f.ParseError != "" {
				response.WriteString(fmt.Sprintf("- `%s`: %s\n", f.Path, f.ParseError))
			}
		}
		response.WriteString("\n")
	}

	return response.String()
}

func writeHooks(b *strings.Builder, title string, hooks []wordpress.HookCall) {
	if len(hooks) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s (%d)\n\n", title, len(hooks)))
	for _, h := range hooks {
		b.WriteString(fmt.Sprintf("- `%s` → `%s` (priority %d, line %d)\n", h.Name, h.Callback, h.Priority, h.Line))
	}
	b.WriteString("\n")
}

func writeCounts(b *strings.Builder, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("- %s: %d\n", heading(k), counts[k]))
	}
	b.WriteString("\n")
}

// FormatWidgetMarkdown renders an Elementor widget analysis for humans.
func FormatWidgetMarkdown(w *elementor.WidgetAnalysis) string {
	var response strings.Builder

	if !w.IsElementorWidget {
		return "No Elementor widget detected.\n"
	}

	name := "(unnamed)"
	if w.WidgetName != nil {
		name = *w.WidgetName
	}
	response.WriteString(fmt.Sprintf("# Elementor Widget: %s\n\n", name))
	if w.WidgetTitle != nil {
		response.WriteString(fmt.Sprintf("**Title:** %s\n", *w.WidgetTitle))
	}
	if w.WidgetIcon != nil {
		response.WriteString(fmt.Sprintf("**Icon:** %s\n", *w.WidgetIcon))
	}
	if len(w.WidgetCategories) > 0 {
		response.WriteString(fmt.Sprintf("**Categories:** %s\n", strings.Join(w.WidgetCategories, ", ")))
	}
	response.WriteString(fmt.Sprintf("**Render method:** %t\n\n", w.HasRenderMethod))

	for _, section := range w.ControlSections {
		label := section.ID
		if section.Label != nil {
			label = *section.Label
		}
		tab := ""
		if section.Tab != nil {
			tab = " [" + heading(strings.ToLower(strings.TrimPrefix(*section.Tab, "TAB_"))) + "]"
		}
		response.WriteString(fmt.Sprintf("## %s%s\n\n", label, tab))
		writeControls(&response, w.Controls, section.ID)
	}
	if hasLooseControls(w.Controls) {
		response.WriteString("## Other Controls\n\n")
		writeControls(&response, w.Controls, "")
	}

	if len(w.StyleDependencies) > 0 || len(w.ScriptDependencies) > 0 {
		response.WriteString("## Dependencies\n\n")
		for _, dep := range w.StyleDependencies {
			response.WriteString(fmt.Sprintf("- style `%s`\n", dep))
		}
		for _, dep := range w.ScriptDependencies {
			response.WriteString(fmt.Sprintf("- script `%s`\n", dep))
		}
		response.WriteString("\n")
	}

	return response.String()
}

func hasLooseControls(controls []elementor.Control) bool {
	for _, c := range controls {
		if c.Section == "" {
			return true
		}
	}
	return false
}

func writeControls(b *strings.Builder, controls []elementor.Control, section string) {
	for _, c := range controls {
		if c.Section != section {
			continue
		}
		kind := "?"
		if c.Type != nil {
			kind = *c.Type
		}
		b.WriteString(fmt.Sprintf("- `%s` (%s)", c.ID, kind))
		if c.Label != nil {
			b.WriteString(" " + *c.Label)
		}
		if c.Responsive {
			b.WriteString(" *responsive*")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// FormatScanMarkdown renders a directory scan for humans.
func FormatScanMarkdown(s *workspace.ScanResult) string {
	var response strings.Builder

	response.WriteString(fmt.Sprintf("# Plugin Scan: %s\n\n", s.Root))
	response.WriteString(fmt.Sprintf("**Files:** %d (%d parsed, %d pattern fallback, %d skipped, %d cached)\n",
		s.Stats.Files, s.Stats.ASTParsed, s.Stats.RegexFallback, s.Stats.Skipped, s.Stats.Cached))
	response.WriteString(fmt.Sprintf("**Elementor widgets:** %d\n\n", s.Stats.ElementorWidgets))

	if len(s.Files) > 0 {
		response.WriteString("| File | Method | Hooks | AJAX | REST | DB | Security |\n")
		response.WriteString("|------|--------|-------|------|------|----|----------|\n")
		for _, f := range s.Files {
			a := f.Analysis
			response.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %d | %d |\n",
				f.Path, a.AnalysisMethod, len(a.Hooks)+len(a.Filters), len(a.AjaxHandlers),
				len(a.RestEndpoints), len(a.DatabaseOperations), len(a.SecurityPatterns)))
		}
		response.WriteString("\n")
	}

	if len(s.Errors) > 0 {
		response.WriteString("## Errors\n\n")
		for _, e := range s.Errors {
			response.WriteString(fmt.Sprintf("- %s\n", e.Error()))
		}
		response.WriteString("\n")
	}

	return response.String()
}
