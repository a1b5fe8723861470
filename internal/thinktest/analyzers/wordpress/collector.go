package wordpress

import (
	"strconv"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/position"
	"github.com/VKCOM/php-parser/pkg/visitor"
	"github.com/VKCOM/php-parser/pkg/visitor/traverser"
)

// factCollector walks a parsed file once and fills every fact sequence of
// an AnalysisResult. Nodes the collector does not recognise are skipped.
type factCollector struct {
	visitor.Null // Embedded - provides default implementations for all visitor methods
	result       *AnalysisResult

	// declarations found inside function bodies; only file-scope
	// functions and classes are reported
	nested map[ast.Vertex]struct{}

	hasAjaxHook   bool
	hasRestRoute  bool
	hasDatabaseOp bool
}

func newFactCollector(result *AnalysisResult) *factCollector {
	return &factCollector{
		result: result,
		nested: make(map[ast.Vertex]struct{}),
	}
}

// collect traverses root and returns the recommendations earned by it
func (v *factCollector) collect(root ast.Vertex) []Recommendation {
	traverser.NewTraverser(v).Traverse(root)
	return recommendationsFor(v.hasAjaxHook, v.hasRestRoute, v.hasDatabaseOp)
}

// ExprFunctionCall handles every plain function call
func (v *factCollector) ExprFunctionCall(n *ast.ExprFunctionCall) {
	name := callName(n.Function)
	if name == "" {
		return
	}
	line := startLine(n.Position)

	if _, ok := hookSet[name]; ok {
		v.result.WordPressPatterns = append(v.result.WordPressPatterns, PatternHit{
			Type:     "hook",
			Function: name,
			Line:     line,
		})
	}

	switch name {
	case "add_action":
		if hook, ok := v.extractHookCall(n.Args, line); ok {
			v.result.Hooks = append(v.result.Hooks, hook)
			v.extractAjaxHandler(hook)
		}
	case "add_filter":
		if filter, ok := v.extractHookCall(n.Args, line); ok {
			v.result.Filters = append(v.result.Filters, filter)
		}
	case restRouteFunction:
		v.hasRestRoute = true
		v.result.RestEndpoints = append(v.result.RestEndpoints, v.extractRestEndpoint(n.Args, line))
	}

	if _, ok := databaseSet[name]; ok {
		v.result.DatabaseOperations = append(v.result.DatabaseOperations, DbOperation{
			Type:     name,
			Category: categorizeDatabase(name),
			Line:     line,
		})
		if _, trigger := dbTriggers[name]; trigger {
			v.hasDatabaseOp = true
		}
	}

	if _, ok := securitySet[name]; ok {
		v.result.SecurityPatterns = append(v.result.SecurityPatterns, SecurityHit{
			Type:     name,
			Category: categorizeSecurity(name),
			Line:     line,
		})
	}
}

// ExprVariable reports every reference to $wpdb
func (v *factCollector) ExprVariable(n *ast.ExprVariable) {
	ident, ok := n.Name.(*ast.Identifier)
	if !ok {
		return
	}
	if strings.TrimPrefix(string(ident.Value), "$") != wpdbVariable {
		return
	}
	v.result.DatabaseOperations = append(v.result.DatabaseOperations, DbOperation{
		Type:     wpdbDirectType,
		Category: DbDirectDatabase,
		Line:     startLine(n.Position),
	})
}

// StmtFunction handles function declarations
func (v *factCollector) StmtFunction(n *ast.StmtFunction) {
	if _, inner := v.nested[n]; !inner {
		if name := identifierValue(n.Name); name != "" {
			v.result.Functions = append(v.result.Functions, NamedLocation{Name: name, Line: startLine(n.Position)})
		}
	}
	v.markNested(n.Stmts...)
}

// StmtClass handles class declarations; anonymous classes have no name
func (v *factCollector) StmtClass(n *ast.StmtClass) {
	if _, inner := v.nested[n]; inner {
		return
	}
	if name := identifierValue(n.Name); name != "" {
		v.result.Classes = append(v.result.Classes, NamedLocation{Name: name, Line: startLine(n.Position)})
	}
}

// StmtClassMethod only hides declarations made inside method bodies
func (v *factCollector) StmtClassMethod(n *ast.StmtClassMethod) {
	v.markNested(n.Stmt)
}

// ExprClosure hides declarations made inside closure bodies
func (v *factCollector) ExprClosure(n *ast.ExprClosure) {
	v.markNested(n.Stmts...)
}

// markNested records function and class declarations below stmts. The
// traverser visits parents before children, so the marks are in place
// before the nested declarations are reached.
func (v *factCollector) markNested(stmts ...ast.Vertex) {
	marker := &declarationMarker{nested: v.nested}
	t := traverser.NewTraverser(marker)
	for _, stmt := range stmts {
		t.Traverse(stmt)
	}
}

type declarationMarker struct {
	visitor.Null
	nested map[ast.Vertex]struct{}
}

func (m *declarationMarker) StmtFunction(n *ast.StmtFunction) { m.nested[n] = struct{}{} }
func (m *declarationMarker) StmtClass(n *ast.StmtClass)       { m.nested[n] = struct{}{} }

// extractHookCall reads add_action/add_filter arguments.
// Hooks with a non-literal name are skipped.
func (v *factCollector) extractHookCall(args []ast.Vertex, line int) (HookCall, bool) {
	name, ok := stringLiteral(argumentExpr(args, 0))
	if !ok {
		return HookCall{}, false
	}

	hook := HookCall{
		Name:     name,
		Callback: unknownValue,
		Priority: defaultHookPriority,
		Line:     line,
	}

	callbackExpr := argumentExpr(args, 1)
	if callback, ok := stringLiteral(callbackExpr); ok {
		hook.Callback = callback
	} else if _, ok := callbackExpr.(*ast.ExprArray); ok {
		hook.Callback = arrayCallback
	}

	if priority, ok := intLiteral(argumentExpr(args, 2)); ok {
		hook.Priority = priority
	}

	return hook, true
}

// extractAjaxHandler strips only the wp_ajax_ prefix, so public handlers
// keep "nopriv_" in their action name.
func (v *factCollector) extractAjaxHandler(hook HookCall) {
	if !strings.HasPrefix(hook.Name, ajaxHookPrefix) {
		return
	}
	v.hasAjaxHook = true
	v.result.AjaxHandlers = append(v.result.AjaxHandlers, AjaxHandler{
		Action:   strings.TrimPrefix(hook.Name, ajaxHookPrefix),
		Hook:     hook.Name,
		Callback: hook.Callback,
		Line:     hook.Line,
		IsPublic: strings.HasPrefix(hook.Name, ajaxPublicHookPrefix),
	})
}

func (v *factCollector) extractRestEndpoint(args []ast.Vertex, line int) RestEndpoint {
	endpoint := RestEndpoint{
		Namespace: unknownValue,
		Route:     unknownValue,
		Methods:   append([]string(nil), defaultRestMethods...),
		Line:      line,
	}
	if ns, ok := stringLiteral(argumentExpr(args, 0)); ok {
		endpoint.Namespace = ns
	}
	if route, ok := stringLiteral(argumentExpr(args, 1)); ok {
		endpoint.Route = route
	}
	return endpoint
}

// AST helpers

// callName returns the called function name for name nodes; dynamic calls
// ($fn(), closures) return "". A leading namespace separator is dropped.
func callName(node ast.Vertex) string {
	var parts []ast.Vertex
	switch n := node.(type) {
	case *ast.Name:
		parts = n.Parts
	case *ast.NameFullyQualified:
		parts = n.Parts
	case *ast.NameRelative:
		parts = n.Parts
	default:
		return ""
	}

	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if namePart, ok := part.(*ast.NamePart); ok {
			names = append(names, string(namePart.Value))
		}
	}
	return strings.Join(names, "\\")
}

func identifierValue(node ast.Vertex) string {
	if ident, ok := node.(*ast.Identifier); ok {
		return string(ident.Value)
	}
	return ""
}

func argumentExpr(args []ast.Vertex, i int) ast.Vertex {
	if i >= len(args) {
		return nil
	}
	if arg, ok := args[i].(*ast.Argument); ok {
		return arg.Expr
	}
	return nil
}

// stringLiteral accepts only constant strings; interpolated strings are
// not literals.
func stringLiteral(node ast.Vertex) (string, bool) {
	str, ok := node.(*ast.ScalarString)
	if !ok {
		return "", false
	}
	return unquotePHPString(string(str.Value)), true
}

func intLiteral(node ast.Vertex) (int, bool) {
	num, ok := node.(*ast.ScalarLnumber)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseInt(string(num.Value), 0, 64)
	if err != nil {
		return 0, false
	}
	return int(value), true
}

// unquotePHPString removes the surrounding quotes of a PHP string token and
// resolves the escapes that matter for identifiers.
func unquotePHPString(raw string) string {
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "b"), "B")
	if len(raw) < 2 {
		return raw
	}
	quote := raw[0]
	if (quote != '\'' && quote != '"') || raw[len(raw)-1] != quote {
		return raw
	}
	body := raw[1 : len(raw)-1]
	if quote == '\'' {
		return strings.NewReplacer(`\\`, `\`, `\'`, `'`).Replace(body)
	}
	return strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\$`, `$`, `\n`, "\n", `\t`, "\t").Replace(body)
}

func startLine(pos *position.Position) int {
	if pos == nil {
		return 0
	}
	return pos.StartLine
}
