package controls

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-controls/layering"
)

// Keys recognised on Args. Anything else lands on Control.Extra.
const (
	keyName              = "name"
	keyType              = "type"
	keyLabel             = "label"
	keyDefault           = "default"
	keySection           = "section"
	keyTab               = "tab"
	keyTabsWrapper       = "tabs_wrapper"
	keyInnerTab          = "inner_tab"
	keyCondition         = "condition"
	keyConditions        = "conditions"
	keyResponsive        = "responsive"
	keyPopover           = "popover"
	keySelectors         = "selectors"
	keyDynamic           = "dynamic"
	keyFrontendAvailable = "frontend_available"
	keyPrefixClass       = "prefix_class"
	keyFields            = "fields"
)

// IsSection reports whether the control opens a section.
func (c Control) IsSection() bool {
	return c.Type == TypeSection
}

// Clone returns a deep copy of the control.
func (c Control) Clone() Control {
	out := c
	out.Default = layering.Clone(c.Default)
	out.Condition = layering.CloneMap(c.Condition)
	out.Conditions = layering.Clone(c.Conditions)
	if c.Responsive != nil {
		r := *c.Responsive
		r.Devices = append([]string(nil), c.Responsive.Devices...)
		if c.Responsive.Devices == nil {
			r.Devices = nil
		}
		out.Responsive = &r
	}
	if c.Popover != nil {
		p := *c.Popover
		out.Popover = &p
	}
	if c.Selectors != nil {
		out.Selectors = make(map[string]string, len(c.Selectors))
		for k, v := range c.Selectors {
			out.Selectors[k] = v
		}
	}
	if c.Dynamic != nil {
		d := *c.Dynamic
		d.Categories = append([]string(nil), c.Dynamic.Categories...)
		if c.Dynamic.Categories == nil {
			d.Categories = nil
		}
		d.Settings = layering.CloneMap(c.Dynamic.Settings)
		out.Dynamic = &d
	}
	if c.Fields != nil {
		out.Fields = make([]Control, len(c.Fields))
		for i, field := range c.Fields {
			out.Fields[i] = field.Clone()
		}
	}
	out.Extra = layering.CloneMap(c.Extra)
	return out
}

// Args encodes the control back into its declaration form. Only populated
// fields are emitted.
func (c Control) Args() Args {
	args := Args{}
	for key, value := range c.Extra {
		args[key] = layering.Clone(value)
	}
	if c.Name != "" {
		args[keyName] = c.Name
	}
	if c.Type != "" {
		args[keyType] = c.Type
	}
	if c.Label != "" {
		args[keyLabel] = c.Label
	}
	if c.Default != nil {
		args[keyDefault] = layering.Clone(c.Default)
	}
	if c.Section != "" {
		args[keySection] = c.Section
	}
	if c.Tab != "" {
		args[keyTab] = c.Tab
	}
	if c.TabsWrapper != "" {
		args[keyTabsWrapper] = c.TabsWrapper
	}
	if c.InnerTab != "" {
		args[keyInnerTab] = c.InnerTab
	}
	if len(c.Condition) > 0 {
		args[keyCondition] = layering.CloneMap(c.Condition)
	}
	if c.Conditions != nil {
		args[keyConditions] = layering.Clone(c.Conditions)
	}
	if c.Responsive != nil {
		responsive := map[string]any{}
		if c.Responsive.Max != "" {
			responsive["max"] = c.Responsive.Max
		}
		if c.Responsive.Min != "" {
			responsive["min"] = c.Responsive.Min
		}
		if c.Responsive.Devices != nil {
			responsive["devices"] = append([]string(nil), c.Responsive.Devices...)
		}
		args[keyResponsive] = responsive
	}
	if c.Popover != nil {
		popover := map[string]any{}
		if c.Popover.Start {
			popover["start"] = true
		}
		if c.Popover.End {
			popover["end"] = true
		}
		args[keyPopover] = popover
	}
	if len(c.Selectors) > 0 {
		selectors := make(map[string]any, len(c.Selectors))
		for k, v := range c.Selectors {
			selectors[k] = v
		}
		args[keySelectors] = selectors
	}
	if c.Dynamic != nil {
		dynamic := layering.CloneMap(c.Dynamic.Settings)
		if dynamic == nil {
			dynamic = map[string]any{}
		}
		dynamic["active"] = c.Dynamic.Active
		if len(c.Dynamic.Categories) > 0 {
			dynamic["categories"] = append([]string(nil), c.Dynamic.Categories...)
		}
		if c.Dynamic.Property != "" {
			dynamic["property"] = c.Dynamic.Property
		}
		args[keyDynamic] = dynamic
	}
	if c.FrontendAvailable {
		args[keyFrontendAvailable] = true
	}
	if c.PrefixClass != "" {
		args[keyPrefixClass] = c.PrefixClass
	}
	if c.Fields != nil {
		fields := make([]any, len(c.Fields))
		for i, field := range c.Fields {
			fields[i] = map[string]any(field.Args())
		}
		args[keyFields] = fields
	}
	return args
}

// ControlFromArgs decodes a declaration into a Control. The name argument wins
// over any "name" key in args.
func ControlFromArgs(name string, args Args) (Control, error) {
	control := Control{Name: name}
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := args[key]
		var err error
		switch key {
		case keyName:
			if control.Name == "" {
				control.Name, err = asString(key, value)
			}
		case keyType:
			control.Type, err = asString(key, value)
		case keyLabel:
			control.Label, err = asString(key, value)
		case keyDefault:
			control.Default = layering.Clone(value)
		case keySection:
			control.Section, err = asString(key, value)
		case keyTab:
			control.Tab, err = asString(key, value)
		case keyTabsWrapper:
			control.TabsWrapper, err = asString(key, value)
		case keyInnerTab:
			control.InnerTab, err = asString(key, value)
		case keyCondition:
			control.Condition, err = asMap(key, value)
		case keyConditions:
			control.Conditions = layering.Clone(value)
		case keyResponsive:
			control.Responsive, err = asResponsive(value)
		case keyPopover:
			control.Popover, err = asPopover(value)
		case keySelectors:
			control.Selectors, err = asStringMap(key, value)
		case keyDynamic:
			control.Dynamic, err = asDynamic(value)
		case keyFrontendAvailable:
			control.FrontendAvailable = truthy(value)
		case keyPrefixClass:
			control.PrefixClass, err = asString(key, value)
		case keyFields:
			control.Fields, err = asFields(value)
		default:
			if control.Extra == nil {
				control.Extra = map[string]any{}
			}
			control.Extra[key] = layering.Clone(value)
		}
		if err != nil {
			return Control{}, fmt.Errorf("controls: decode %q: %w", name, err)
		}
	}
	return control, nil
}

func asString(key string, value any) (string, error) {
	switch typed := value.(type) {
	case nil:
		return "", nil
	case string:
		return typed, nil
	default:
		return "", fmt.Errorf("%s must be a string, got %T", key, value)
	}
}

func asMap(key string, value any) (map[string]any, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case Args:
		return layering.CloneMap(map[string]any(typed)), nil
	case map[string]any:
		return layering.CloneMap(typed), nil
	case map[string]string:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a map, got %T", key, value)
	}
}

func asStringMap(key string, value any) (map[string]string, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out, nil
	}
	generic, err := asMap(key, value)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(generic))
	for k, v := range generic {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%s] must be a string, got %T", key, k, v)
		}
		out[k] = s
	}
	return out, nil
}

func asStrings(key string, value any) ([]string, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string{}, typed...), nil
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s entries must be strings, got %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a list of strings, got %T", key, value)
	}
}

func asResponsive(value any) (*Responsive, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case *Responsive:
		if typed == nil {
			return nil, nil
		}
		clone := *typed
		clone.Devices = append([]string(nil), typed.Devices...)
		return &clone, nil
	case Responsive:
		return asResponsive(&typed)
	}
	m, err := asMap(keyResponsive, value)
	if err != nil {
		return nil, err
	}
	out := &Responsive{}
	if out.Max, err = asString("responsive.max", m["max"]); err != nil {
		return nil, err
	}
	if out.Min, err = asString("responsive.min", m["min"]); err != nil {
		return nil, err
	}
	if out.Devices, err = asStrings("responsive.devices", m["devices"]); err != nil {
		return nil, err
	}
	return out, nil
}

func asPopover(value any) (*PopoverBoundary, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case *PopoverBoundary:
		if typed == nil {
			return nil, nil
		}
		clone := *typed
		return &clone, nil
	case PopoverBoundary:
		return &typed, nil
	}
	m, err := asMap(keyPopover, value)
	if err != nil {
		return nil, err
	}
	return &PopoverBoundary{Start: truthy(m["start"]), End: truthy(m["end"])}, nil
}

func asDynamic(value any) (*Dynamic, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case bool:
		return &Dynamic{Active: typed}, nil
	case *Dynamic:
		if typed == nil {
			return nil, nil
		}
		clone := *typed
		clone.Settings = layering.CloneMap(typed.Settings)
		return &clone, nil
	case Dynamic:
		return asDynamic(&typed)
	}
	m, err := asMap(keyDynamic, value)
	if err != nil {
		return nil, err
	}
	out := &Dynamic{}
	for key, item := range m {
		switch key {
		case "active":
			out.Active = truthy(item)
		case "categories":
			if out.Categories, err = asStrings("dynamic.categories", item); err != nil {
				return nil, err
			}
		case "property":
			if out.Property, err = asString("dynamic.property", item); err != nil {
				return nil, err
			}
		default:
			if out.Settings == nil {
				out.Settings = map[string]any{}
			}
			out.Settings[key] = layering.Clone(item)
		}
	}
	return out, nil
}

func asFields(value any) ([]Control, error) {
	var entries []any
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case []Control:
		out := make([]Control, len(typed))
		for i, field := range typed {
			out[i] = field.Clone()
		}
		return out, nil
	case []Args:
		for _, item := range typed {
			entries = append(entries, map[string]any(item))
		}
	case []map[string]any:
		for _, item := range typed {
			entries = append(entries, item)
		}
	case []any:
		entries = typed
	default:
		return nil, fmt.Errorf("fields must be a list, got %T", value)
	}

	out := make([]Control, 0, len(entries))
	for i, entry := range entries {
		m, err := asMap(fmt.Sprintf("fields[%d]", i), entry)
		if err != nil {
			return nil, err
		}
		name, _ := m[keyName].(string)
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("fields[%d] is missing a name", i)
		}
		field, err := ControlFromArgs(name, Args(m))
		if err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, nil
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != "" && typed != "0"
	case int:
		return typed != 0
	case int64:
		return typed != 0
	case float64:
		return typed != 0
	default:
		return !isEmpty(value)
	}
}
