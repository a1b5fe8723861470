package elementor

// WidgetAnalysis describes an Elementor widget class
type WidgetAnalysis struct {
	IsElementorWidget  bool             `json:"is_elementor_widget"`
	WidgetName         *string          `json:"widget_name,omitempty"`  // get_name() return value
	WidgetTitle        *string          `json:"widget_title,omitempty"` // get_title() return value
	WidgetIcon         *string          `json:"widget_icon,omitempty"`  // get_icon() return value
	WidgetCategories   []string         `json:"widget_categories"`
	Controls           []Control        `json:"controls"`
	ControlSections    []ControlSection `json:"control_sections"`
	HasRenderMethod    bool             `json:"has_render_method"`
	StyleDependencies  []string         `json:"style_dependencies"`
	ScriptDependencies []string         `json:"script_dependencies"`
}

// Control is one add_control / add_responsive_control registration
type Control struct {
	ID         string            `json:"id"`
	Type       *string           `json:"type,omitempty"`  // Controls_Manager constant or literal
	Label      *string           `json:"label,omitempty"` // translation helpers unwrapped
	Default    any               `json:"default"`         // string, int, bool or nil
	Options    map[string]string `json:"options"`
	Condition  map[string]string `json:"condition"`
	Section    string            `json:"section,omitempty"` // enclosing control section id
	Responsive bool              `json:"responsive,omitempty"`
}

// ControlSection is one start_controls_section registration
type ControlSection struct {
	ID    string  `json:"id"`
	Label *string `json:"label,omitempty"`
	Tab   *string `json:"tab,omitempty"`
}
