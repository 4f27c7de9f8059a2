package controls

// Args is the declaration payload of a control as supplied by callers. Keys
// follow the stored field names (type, default, section, tab, condition, ...);
// unknown keys are preserved on Control.Extra.
type Args map[string]any

// Built-in control type names.
const (
	TypeSection       = "section"
	TypeTabs          = "tabs"
	TypeTab           = "tab"
	TypeWPWidget      = "wp_widget"
	TypeHeading       = "heading"
	TypeDivider       = "divider"
	TypeRawHTML       = "raw_html"
	TypeButton        = "button"
	TypeText          = "text"
	TypeTextarea      = "textarea"
	TypeNumber        = "number"
	TypeHidden        = "hidden"
	TypeSelect        = "select"
	TypeChoose        = "choose"
	TypeSwitcher      = "switcher"
	TypeColor         = "color"
	TypeURL           = "url"
	TypeMedia         = "media"
	TypeSlider        = "slider"
	TypeDimensions    = "dimensions"
	TypePopoverToggle = "popover_toggle"
	TypeRepeater      = "repeater"
)

// Tabs of the editor panel a control can be placed on.
const (
	TabContent  = "content"
	TabStyle    = "style"
	TabAdvanced = "advanced"
)

// Breakpoint devices in canonical order, widest first.
const (
	DeviceDesktop = "desktop"
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
)

// DynamicSettingPrefix prefixes the raw data key holding a control's tag text.
const DynamicSettingPrefix = "dynamic_"

// Devices returns the canonical device order.
func Devices() []string {
	return []string{DeviceDesktop, DeviceTablet, DeviceMobile}
}

// Control is a resolved control definition stored in a stack.
type Control struct {
	Name              string            `json:"name"`
	Type              string            `json:"type"`
	Label             string            `json:"label,omitempty"`
	Default           any               `json:"default,omitempty"`
	Section           string            `json:"section,omitempty"`
	Tab               string            `json:"tab,omitempty"`
	TabsWrapper       string            `json:"tabs_wrapper,omitempty"`
	InnerTab          string            `json:"inner_tab,omitempty"`
	Condition         map[string]any    `json:"condition,omitempty"`
	Conditions        any               `json:"conditions,omitempty"`
	Responsive        *Responsive       `json:"responsive,omitempty"`
	Popover           *PopoverBoundary  `json:"popover,omitempty"`
	Selectors         map[string]string `json:"selectors,omitempty"`
	Dynamic           *Dynamic          `json:"dynamic,omitempty"`
	FrontendAvailable bool              `json:"frontend_available,omitempty"`
	PrefixClass       string            `json:"prefix_class,omitempty"`
	Fields            []Control         `json:"fields,omitempty"`
	Extra             map[string]any    `json:"extra,omitempty"`
}

// Responsive records which breakpoint variant a stored control represents.
type Responsive struct {
	Max     string   `json:"max,omitempty"`
	Min     string   `json:"min,omitempty"`
	Devices []string `json:"devices,omitempty"`
}

// PopoverBoundary marks the first and last control of a popover run.
type PopoverBoundary struct {
	Start bool `json:"start,omitempty"`
	End   bool `json:"end,omitempty"`
}

// Dynamic configures dynamic tag resolution for a control.
type Dynamic struct {
	Active     bool           `json:"active"`
	Categories []string       `json:"categories,omitempty"`
	Property   string         `json:"property,omitempty"`
	Settings   map[string]any `json:"settings,omitempty"`
}

// SectionContext is the open section captured while declaring controls.
type SectionContext struct {
	Section   string
	Tab       string
	Condition map[string]any
}

// TabsContext is the open tabs group and, inside it, the open tab.
type TabsContext struct {
	TabsWrapper string
	InnerTab    string
	Condition   map[string]any
	Conditions  any
}

// PopoverContext tracks whether the popover start boundary was applied.
type PopoverContext struct {
	Initialized bool
}

// Position is a symbolic insertion point relative to an existing control.
// Type is "control" (At before/after) or "section" (At start/end).
type Position struct {
	Type string
	At   string
	Of   string
}

// Position types and anchors.
const (
	PositionControl = "control"
	PositionSection = "section"
	AtBefore        = "before"
	AtAfter         = "after"
	AtStart         = "start"
	AtEnd           = "end"
)

// InjectionPoint overrides where new controls land and which context they
// inherit.
type InjectionPoint struct {
	Index   int
	Section SectionContext
	Tab     *TabsContext
}
