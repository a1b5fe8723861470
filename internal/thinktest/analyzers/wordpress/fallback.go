package wordpress

import (
	"regexp"
	"sort"
	"strings"
)

var (
	fallbackPatternRe  = callRegexp(append(append([]string{}, hookFunctions...), enqueueFunctions...))
	fallbackFunctionRe = regexp.MustCompile(`function\s+(\w+)\s*\(`)
	fallbackClassRe    = regexp.MustCompile(`class\s+(\w+)`)
	fallbackHookRe     = regexp.MustCompile(`add_action\s*\(\s*['"]([^'"]+)['"]`)
	fallbackFilterRe   = regexp.MustCompile(`add_filter\s*\(\s*['"]([^'"]+)['"]`)
	fallbackAjaxRe     = regexp.MustCompile(`add_action\s*\(\s*['"]wp_ajax_([^'"]+)['"]`)
	fallbackRestRe     = regexp.MustCompile(`register_rest_route\s*\(\s*['"]([^'"]+)['"]`)
	fallbackDatabaseRe = callRegexp(databaseFunctions)
	fallbackWpdbRe     = regexp.MustCompile(`\$wpdb\b`)
	fallbackSecurityRe = callRegexp(securityFunctions)
)

// callRegexp matches a call to any of names and captures the name
func callRegexp(names []string) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\s*\(`)
}

// analyzeWithRegex extracts facts from source the AST parser rejected.
// Callbacks and priorities cannot be recovered, AJAX handlers are never
// public and only the baseline recommendations are produced.
func analyzeWithRegex(code, filename string) *AnalysisResult {
	result := newResult(filename)
	result.AnalysisMethod = MethodRegexFallback
	lines := newLineIndex(code)

	for _, m := range fallbackPatternRe.FindAllStringSubmatchIndex(code, -1) {
		result.WordPressPatterns = append(result.WordPressPatterns, PatternHit{
			Type:     "hook",
			Function: code[m[2]:m[3]],
			Line:     lines.lineAt(m[0]),
		})
	}

	eachCapture(fallbackFunctionRe, code, func(name string, offset int) {
		result.Functions = append(result.Functions, NamedLocation{Name: name, Line: lines.lineAt(offset)})
	})
	eachCapture(fallbackClassRe, code, func(name string, offset int) {
		result.Classes = append(result.Classes, NamedLocation{Name: name, Line: lines.lineAt(offset)})
	})
	eachCapture(fallbackHookRe, code, func(name string, offset int) {
		result.Hooks = append(result.Hooks, fallbackHookCall(name, lines.lineAt(offset)))
	})
	eachCapture(fallbackFilterRe, code, func(name string, offset int) {
		result.Filters = append(result.Filters, fallbackHookCall(name, lines.lineAt(offset)))
	})
	eachCapture(fallbackAjaxRe, code, func(action string, offset int) {
		result.AjaxHandlers = append(result.AjaxHandlers, AjaxHandler{
			Action:   action,
			Hook:     ajaxHookPrefix + action,
			Callback: unknownValue,
			Line:     lines.lineAt(offset),
			IsPublic: false,
		})
	})
	eachCapture(fallbackRestRe, code, func(namespace string, offset int) {
		result.RestEndpoints = append(result.RestEndpoints, RestEndpoint{
			Namespace: namespace,
			Route:     unknownValue,
			Methods:   append([]string(nil), defaultRestMethods...),
			Line:      lines.lineAt(offset),
		})
	})

	result.DatabaseOperations = fallbackDatabaseOperations(code, lines)

	eachCapture(fallbackSecurityRe, code, func(name string, offset int) {
		result.SecurityPatterns = append(result.SecurityPatterns, SecurityHit{
			Type:     name,
			Category: categorizeSecurity(name),
			Line:     lines.lineAt(offset),
		})
	})

	result.TestRecommendations = baselineRecommendations()
	return result
}

func fallbackHookCall(name string, line int) HookCall {
	return HookCall{
		Name:     name,
		Callback: unknownValue,
		Priority: defaultHookPriority,
		Line:     line,
	}
}

// fallbackDatabaseOperations merges function calls and $wpdb references in
// source order, like the AST walk reports them.
func fallbackDatabaseOperations(code string, lines lineIndex) []DbOperation {
	type located struct {
		offset int
		op     DbOperation
	}
	var found []located

	eachCapture(fallbackDatabaseRe, code, func(name string, offset int) {
		found = append(found, located{offset, DbOperation{
			Type:     name,
			Category: categorizeDatabase(name),
			Line:     lines.lineAt(offset),
		}})
	})
	for _, m := range fallbackWpdbRe.FindAllStringIndex(code, -1) {
		found = append(found, located{m[0], DbOperation{
			Type:     wpdbDirectType,
			Category: DbDirectDatabase,
			Line:     lines.lineAt(m[0]),
		}})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].offset < found[j].offset })

	ops := make([]DbOperation, 0, len(found))
	for _, f := range found {
		ops = append(ops, f.op)
	}
	return ops
}

// eachCapture calls fn with the first capture group and the offset of the
// whole match, for every match of re.
func eachCapture(re *regexp.Regexp, code string, fn func(capture string, offset int)) {
	for _, m := range re.FindAllStringSubmatchIndex(code, -1) {
		if len(m) < 4 || m[2] < 0 {
			continue
		}
		fn(code[m[2]:m[3]], m[0])
	}
}

// lineIndex maps byte offsets to 1-based line numbers
type lineIndex []int

func newLineIndex(code string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(code); i++ {
		if code[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineAt is the number of newlines before offset, plus one
func (l lineIndex) lineAt(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset })
}
