package controls

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-controls/layering"
)

// ControlType describes the behaviour shared by every control of one type.
// Only data controls take part in settings and visibility resolution.
type ControlType interface {
	Name() string
	IsDataControl() bool
	// DefaultSettings is merged beneath the declared args of each control.
	DefaultSettings() Args
	// DefaultValue is used when neither raw data nor the control supply one.
	DefaultValue() any
	// Value computes the settings value of control from raw entity data.
	Value(control Control, raw map[string]any, types TypeLookup) any
}

// TypeLookup resolves control types by name.
type TypeLookup interface {
	Lookup(name string) (ControlType, bool)
}

type uiType struct {
	name string
}

// NewUIType returns a non-data control type (headings, sections, tabs, ...).
func NewUIType(name string) ControlType {
	return uiType{name: name}
}

func (t uiType) Name() string { return t.name }
func (uiType) IsDataControl() bool { return false }
func (uiType) DefaultSettings() Args { return nil }
func (uiType) DefaultValue() any { return nil }
func (uiType) Value(Control, map[string]any, TypeLookup) any { return nil }

type dataType struct {
	name         string
	defaultValue any
	settings     Args
}

// NewDataType returns a data control type whose value is the raw setting when
// present and the control default otherwise.
func NewDataType(name string, defaultValue any, settings Args) ControlType {
	return dataType{
		name:         name,
		defaultValue: layering.Clone(defaultValue),
		settings:     Args(layering.CloneMap(map[string]any(settings))),
	}
}

func (t dataType) Name() string { return t.name }
func (dataType) IsDataControl() bool { return true }
func (t dataType) DefaultValue() any { return layering.Clone(t.defaultValue) }
func (t dataType) DefaultSettings() Args {
	return Args(layering.CloneMap(map[string]any(t.settings)))
}

func (t dataType) Value(control Control, raw map[string]any, _ TypeLookup) any {
	if value, ok := raw[control.Name]; ok && value != nil {
		return layering.Clone(value)
	}
	if control.Default != nil {
		return layering.Clone(control.Default)
	}
	return t.DefaultValue()
}

type repeaterType struct {
	dataType
}

// NewRepeaterType returns the repeater type. Each row of its value is filled
// with the values of the repeater fields.
func NewRepeaterType() ControlType {
	return repeaterType{dataType: dataType{name: TypeRepeater, defaultValue: []any{}}}
}

func (t repeaterType) Value(control Control, raw map[string]any, types TypeLookup) any {
	value := t.dataType.Value(control, raw, types)
	rows := rowsOf(value)
	if len(rows) == 0 {
		return value
	}
	out := make([]any, len(rows))
	for i, row := range rows {
		item := layering.CloneMap(row)
		if item == nil {
			item = map[string]any{}
		}
		for _, field := range control.Fields {
			fieldType, ok := lookupType(types, field.Type)
			if !ok || !fieldType.IsDataControl() {
				continue
			}
			item[field.Name] = fieldType.Value(field, item, types)
		}
		out[i] = item
	}
	return out
}

// rowsOf normalises a repeater value to its rows.
func rowsOf(value any) []map[string]any {
	switch typed := value.(type) {
	case []map[string]any:
		return typed
	case []any:
		rows := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			row, ok := item.(map[string]any)
			if !ok {
				row = map[string]any{}
			}
			rows = append(rows, row)
		}
		return rows
	default:
		return nil
	}
}

func lookupType(types TypeLookup, name string) (ControlType, bool) {
	if types == nil {
		return nil, false
	}
	return types.Lookup(name)
}

// TypeRegistry stores control types keyed by name.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]ControlType
}

// NewTypeRegistry constructs an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: map[string]ControlType{}}
}

// DefaultTypeRegistry returns a registry preloaded with the built-in types.
func DefaultTypeRegistry() *TypeRegistry {
	reg := NewTypeRegistry()
	for _, t := range builtinTypes() {
		_ = reg.Register(t)
	}
	return reg
}

// Register stores t guarding against duplicates.
func (r *TypeRegistry) Register(t ControlType) error {
	if t == nil {
		return fmt.Errorf("controls: control type is nil")
	}
	name := strings.TrimSpace(t.Name())
	if name == "" {
		return fmt.Errorf("controls: control type name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.types == nil {
		r.types = map[string]ControlType{}
	}
	if _, exists := r.types[name]; exists {
		return fmt.Errorf("controls: control type %q already registered", name)
	}
	r.types[name] = t
	return nil
}

// Lookup returns the type registered under name.
func (r *TypeRegistry) Lookup(name string) (ControlType, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns registered type names sorted alphabetically.
func (r *TypeRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtinTypes() []ControlType {
	textDynamic := Args{"dynamic": map[string]any{"categories": []any{"text"}}}
	return []ControlType{
		NewUIType(TypeSection),
		NewUIType(TypeTabs),
		NewUIType(TypeTab),
		NewUIType(TypeHeading),
		NewUIType(TypeDivider),
		NewUIType(TypeRawHTML),
		NewUIType(TypeButton),
		NewDataType(TypeWPWidget, map[string]any{}, nil),
		NewDataType(TypeText, "", textDynamic),
		NewDataType(TypeTextarea, "", textDynamic),
		NewDataType(TypeNumber, "", Args{"dynamic": map[string]any{"categories": []any{"number"}}}),
		NewDataType(TypeHidden, "", nil),
		NewDataType(TypeSelect, "", Args{"options": map[string]any{}}),
		NewDataType(TypeChoose, "", Args{"options": map[string]any{}}),
		NewDataType(TypeSwitcher, "", Args{"return_value": "yes"}),
		NewDataType(TypeColor, "", Args{"dynamic": map[string]any{"categories": []any{"color"}}}),
		NewDataType(TypeURL, map[string]any{"url": "", "is_external": "", "nofollow": ""},
			Args{"dynamic": map[string]any{"categories": []any{"url"}, "property": "url"}}),
		NewDataType(TypeMedia, map[string]any{"url": "", "id": ""},
			Args{"dynamic": map[string]any{"categories": []any{"image"}}}),
		NewDataType(TypeSlider, map[string]any{"unit": "px", "size": "", "sizes": []any{}}, nil),
		NewDataType(TypeDimensions, map[string]any{
			"unit": "px", "top": "", "right": "", "bottom": "", "left": "", "isLinked": true,
		}, nil),
		NewDataType(TypePopoverToggle, "", nil),
		NewRepeaterType(),
	}
}
