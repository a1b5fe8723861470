package wordpress

// AnalysisMethod tells how the facts of an AnalysisResult were extracted
type AnalysisMethod string

const (
	MethodAST           AnalysisMethod = "ast"
	MethodRegexFallback AnalysisMethod = "regex_fallback"
)

// Priority of a test recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// AnalysisResult is the fact-base extracted from one analyzePlugin call.
// In multi-file mode every sequence is the concatenation of the per-segment
// sequences, in split order.
type AnalysisResult struct {
	Filename            string           `json:"filename"`
	WordPressPatterns   []PatternHit     `json:"wordpress_patterns"`
	Functions           []NamedLocation  `json:"functions"`
	Classes             []NamedLocation  `json:"classes"`
	Hooks               []HookCall       `json:"hooks"`
	Filters             []HookCall       `json:"filters"`
	AjaxHandlers        []AjaxHandler    `json:"ajax_handlers"`
	RestEndpoints       []RestEndpoint   `json:"rest_endpoints"`
	DatabaseOperations  []DbOperation    `json:"database_operations"`
	SecurityPatterns    []SecurityHit    `json:"security_patterns"`
	TestRecommendations []Recommendation `json:"test_recommendations"`
	AnalysisMethod      AnalysisMethod   `json:"analysis_method"`

	// Only set in multi-file mode
	ParsedFileCount *int          `json:"parsed_file_count,omitempty"`
	FailedFileCount *int          `json:"failed_file_count,omitempty"`
	Files           []FileSummary `json:"files,omitempty"`
}

// NamedLocation identifies a function or class declaration site
type NamedLocation struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// PatternHit is a raw call to one of the core WordPress hook API functions
type PatternHit struct {
	Type     string `json:"type"` // always "hook"
	Function string `json:"function"`
	Line     int    `json:"line"`
}

// HookCall is an add_action/add_filter registration
type HookCall struct {
	Name     string `json:"name"`
	Callback string `json:"callback"` // literal name, "array_callback" or "unknown"
	Priority int    `json:"priority"`
	Line     int    `json:"line"`
}

// AjaxHandler is an add_action registration on a wp_ajax_ hook
type AjaxHandler struct {
	Action   string `json:"action"`
	Hook     string `json:"hook"`
	Callback string `json:"callback"`
	Line     int    `json:"line"`
	IsPublic bool   `json:"is_public"`
}

// RestEndpoint is a register_rest_route call
type RestEndpoint struct {
	Namespace string   `json:"namespace"`
	Route     string   `json:"route"`
	Methods   []string `json:"methods"`
	Line      int      `json:"line"`
}

// DbOperation is a call to a known data-access function or a $wpdb reference
type DbOperation struct {
	Type     string     `json:"type"` // function name or "wpdb_direct"
	Category DbCategory `json:"category"`
	Line     int        `json:"line"`
}

// SecurityHit is a call to a known nonce/sanitize/escape/capability function
type SecurityHit struct {
	Type     string           `json:"type"`
	Category SecurityCategory `json:"category"`
	Line     int              `json:"line"`
}

// Recommendation is a qualitative test-coverage suggestion
type Recommendation struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// FileSummary describes how one segment of a multi-file input was analyzed
type FileSummary struct {
	Path           string         `json:"path"`
	AnalysisMethod AnalysisMethod `json:"analysis_method"`
	ParseError     string         `json:"parse_error,omitempty"`
}

// newResult returns a result with all sequences non-nil so that JSON
// consumers always see arrays.
func newResult(filename string) *AnalysisResult {
	return &AnalysisResult{
		Filename:            filename,
		WordPressPatterns:   []PatternHit{},
		Functions:           []NamedLocation{},
		Classes:             []NamedLocation{},
		Hooks:               []HookCall{},
		Filters:             []HookCall{},
		AjaxHandlers:        []AjaxHandler{},
		RestEndpoints:       []RestEndpoint{},
		DatabaseOperations:  []DbOperation{},
		SecurityPatterns:    []SecurityHit{},
		TestRecommendations: []Recommendation{},
		AnalysisMethod:      MethodAST,
	}
}

// append concatenates the fact sequences of other onto r.
// Recommendations are merged separately.
func (r *AnalysisResult) append(other *AnalysisResult) {
	r.WordPressPatterns = append(r.WordPressPatterns, other.WordPressPatterns...)
	r.Functions = append(r.Functions, other.Functions...)
	r.Classes = append(r.Classes, other.Classes...)
	r.Hooks = append(r.Hooks, other.Hooks...)
	r.Filters = append(r.Filters, other.Filters...)
	r.AjaxHandlers = append(r.AjaxHandlers, other.AjaxHandlers...)
	r.RestEndpoints = append(r.RestEndpoints, other.RestEndpoints...)
	r.DatabaseOperations = append(r.DatabaseOperations, other.DatabaseOperations...)
	r.SecurityPatterns = append(r.SecurityPatterns, other.SecurityPatterns...)
}
