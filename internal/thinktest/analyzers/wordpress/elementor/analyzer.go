package elementor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// widgetMarkers identify Elementor widget source; any one is enough
var widgetMarkers = []string{
	`Widget_Base`,
	`Controls_Manager`,
	`Group_Control`,
	`Elementor\Widget_Base`,
	`Elementor\Controls_Manager`,
	`get_name()`,
	`get_title()`,
	`get_icon()`,
	`get_categories()`,
	`register_controls()`,
	`render()`,
}

var (
	controlRe    = regexp.MustCompile(`\$this\s*->\s*(add_control|add_responsive_control)\s*\(\s*['"]([^'"]+)['"]\s*,\s*`)
	sectionRe    = regexp.MustCompile(`\$this\s*->\s*start_controls_section\s*\(\s*['"]([^'"]+)['"]\s*,\s*`)
	sectionEndRe = regexp.MustCompile(`\$this\s*->\s*end_controls_section\s*\(`)
	renderRe     = regexp.MustCompile(`protected\s+function\s+render\s*\(\s*\)`)

	// a quoted string, optionally wrapped in a call such as esc_html__(
	stringValueRe   = regexp.MustCompile(`^(?:[A-Za-z_\\][\w\\]*\s*\(\s*)?(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)")`)
	constantValueRe = regexp.MustCompile(`^\\?(?:Elementor\\)?Controls_Manager\s*::\s*(\w+)`)
	quotedRe        = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)"`)
	pairKeyRe       = regexp.MustCompile(`(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)")\s*=>`)
	integerRe       = regexp.MustCompile(`^-?\d+$`)

	typeKeyRe      = configKeyRegexp("type")
	labelKeyRe     = configKeyRegexp("label")
	defaultKeyRe   = configKeyRegexp("default")
	optionsKeyRe   = configKeyRegexp("options")
	conditionKeyRe = configKeyRegexp("condition")
	tabKeyRe       = configKeyRegexp("tab")

	nameReturnRe         = methodReturnRegexp("get_name")
	titleReturnRe        = methodReturnRegexp("get_title")
	iconReturnRe         = methodReturnRegexp("get_icon")
	categoriesReturnRe   = methodReturnRegexp("get_categories")
	styleDependsReturnRe = methodReturnRegexp("get_style_depends")
	scriptDependsRetRe   = methodReturnRegexp("get_script_depends")
)

func configKeyRegexp(key string) *regexp.Regexp {
	return regexp.MustCompile(`['"]` + regexp.QuoteMeta(key) + `['"]\s*=>`)
}

// methodReturnRegexp matches up to the returned expression of a method
// whose body starts with a return statement.
func methodReturnRegexp(method string) *regexp.Regexp {
	return regexp.MustCompile(`function\s+` + method + `\s*\(\s*\)\s*(?::\s*\??[\w\\]+\s*)?\{\s*return\s+`)
}

// Analyze extracts the widget conventions from Elementor widget source.
// It works on raw text and accepts any input.
func Analyze(code string) *WidgetAnalysis {
	result := &WidgetAnalysis{
		IsElementorWidget:  isWidget(code),
		WidgetCategories:   []string{},
		Controls:           []Control{},
		ControlSections:    []ControlSection{},
		StyleDependencies:  []string{},
		ScriptDependencies: []string{},
	}
	if !result.IsElementorWidget {
		return result
	}

	result.WidgetName = returnedString(code, nameReturnRe)
	result.WidgetTitle = returnedString(code, titleReturnRe)
	result.WidgetIcon = returnedString(code, iconReturnRe)
	result.WidgetCategories = returnedStrings(code, categoriesReturnRe)
	result.StyleDependencies = returnedStrings(code, styleDependsReturnRe)
	result.ScriptDependencies = returnedStrings(code, scriptDependsRetRe)
	result.HasRenderMethod = renderRe.MatchString(code)

	result.ControlSections, result.Controls = extractControls(code)
	return result
}

func isWidget(code string) bool {
	for _, marker := range widgetMarkers {
		if strings.Contains(code, marker) {
			return true
		}
	}
	return false
}

type controlEvent struct {
	offset  int
	section *ControlSection
	control *Control
	closes  bool
}

// extractControls collects sections and controls in source order and
// assigns every control to the section open at its position.
func extractControls(code string) ([]ControlSection, []Control) {
	var events []controlEvent

	for _, m := range sectionRe.FindAllStringSubmatchIndex(code, -1) {
		section := ControlSection{ID: code[m[2]:m[3]]}
		if body, _, ok := arrayBody(code, m[1]); ok {
			top := topLevel(body)
			section.Label = stringAt(body, top, labelKeyRe)
			section.Tab = constantOrStringAt(body, top, tabKeyRe)
		}
		events = append(events, controlEvent{offset: m[0], section: &section})
	}

	for _, m := range sectionEndRe.FindAllStringIndex(code, -1) {
		events = append(events, controlEvent{offset: m[0], closes: true})
	}

	for _, m := range controlRe.FindAllStringSubmatchIndex(code, -1) {
		control := Control{
			ID:         code[m[4]:m[5]],
			Options:    map[string]string{},
			Condition:  map[string]string{},
			Responsive: code[m[2]:m[3]] == "add_responsive_control",
		}
		if body, _, ok := arrayBody(code, m[1]); ok {
			parseControlConfig(&control, body)
		}
		events = append(events, controlEvent{offset: m[0], control: &control})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].offset < events[j].offset })

	sections := []ControlSection{}
	controls := []Control{}
	current := ""
	for _, e := range events {
		switch {
		case e.section != nil:
			sections = append(sections, *e.section)
			current = e.section.ID
		case e.closes:
			current = ""
		case e.control != nil:
			e.control.Section = current
			controls = append(controls, *e.control)
		}
	}
	return sections, controls
}

// parseControlConfig reads the top-level keys of a control config array
func parseControlConfig(control *Control, body string) {
	top := topLevel(body)

	control.Type = constantOrStringAt(body, top, typeKeyRe)
	control.Label = stringAt(body, top, labelKeyRe)

	if start, ok := valueStart(body, top, defaultKeyRe); ok {
		control.Default = scalarValue(body, top, start)
	}
	if start, ok := valueStart(body, top, optionsKeyRe); ok {
		control.Options = mapValue(body, start)
	}
	if start, ok := valueStart(body, top, conditionKeyRe); ok {
		control.Condition = mapValue(body, start)
	}
}

// valueStart returns the offset of the value bound to the key matched by
// keyRe in the masked top-level text. Whitespace is skipped in body because
// a nested array value is blank in top.
func valueStart(body, top string, keyRe *regexp.Regexp) (int, bool) {
	loc := keyRe.FindStringIndex(top)
	if loc == nil {
		return 0, false
	}
	return skipSpace(body, loc[1]), true
}

func skipSpace(s string, i int) int {
	for i < len(s) && strings.IndexByte(" \t\r\n", s[i]) >= 0 {
		i++
	}
	return i
}

func stringAt(body, top string, keyRe *regexp.Regexp) *string {
	start, ok := valueStart(body, top, keyRe)
	if !ok {
		return nil
	}
	if s, ok := stringValue(body[start:]); ok {
		return &s
	}
	return nil
}

// constantOrStringAt reads Controls_Manager::NAME as NAME, or a string
func constantOrStringAt(body, top string, keyRe *regexp.Regexp) *string {
	start, ok := valueStart(body, top, keyRe)
	if !ok {
		return nil
	}
	if m := constantValueRe.FindStringSubmatch(body[start:]); m != nil {
		return &m[1]
	}
	if s, ok := stringValue(body[start:]); ok {
		return &s
	}
	return nil
}

func stringValue(src string) (string, bool) {
	m := stringValueRe.FindStringSubmatch(src)
	if m == nil {
		return "", false
	}
	return unescape(m[1] + m[2]), true
}

// scalarValue converts a default value into a string, int, bool or nil.
// Arrays and other expressions are kept as their source text.
func scalarValue(body, top string, start int) any {
	raw := rawValue(body, top, start)
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	case "null", "":
		return nil
	}
	if integerRe.MatchString(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	if s, ok := stringValue(raw); ok {
		return s
	}
	return raw
}

// rawValue is the source text from start up to the next top-level comma
func rawValue(body, top string, start int) string {
	end := len(top)
	for i := start; i < len(top); {
		if next := skipLiteral(top, i); next != i {
			i = next
			continue
		}
		if top[i] == ',' {
			end = i
			break
		}
		i++
	}
	return strings.TrimSpace(body[start:end])
}

// mapValue reads a flat associative array such as options or condition
func mapValue(body string, start int) map[string]string {
	result := map[string]string{}
	inner, _, ok := arrayBody(body, start)
	if !ok {
		return result
	}
	top := topLevel(inner)
	for _, m := range pairKeyRe.FindAllStringSubmatchIndex(top, -1) {
		var key string
		if m[2] >= 0 {
			key = inner[m[2]:m[3]]
		} else {
			key = inner[m[4]:m[5]]
		}
		value := rawValue(inner, top, skipSpace(inner, m[1]))
		if s, ok := stringValue(value); ok {
			value = s
		}
		result[unescape(key)] = value
	}
	return result
}

// returnedString reads the string returned by a getter method
func returnedString(code string, methodRe *regexp.Regexp) *string {
	loc := methodRe.FindStringIndex(code)
	if loc == nil {
		return nil
	}
	if s, ok := stringValue(code[loc[1]:]); ok {
		return &s
	}
	return nil
}

// returnedStrings reads the array of strings returned by a getter method
func returnedStrings(code string, methodRe *regexp.Regexp) []string {
	values := []string{}
	loc := methodRe.FindStringIndex(code)
	if loc == nil {
		return values
	}
	body, _, ok := arrayBody(code, loc[1])
	if !ok {
		return values
	}
	for _, m := range quotedRe.FindAllStringSubmatch(body, -1) {
		values = append(values, unescape(m[1]+m[2]))
	}
	return values
}

func unescape(s string) string {
	return strings.NewReplacer(`\\`, `\`, `\'`, `'`, `\"`, `"`).Replace(s)
}
