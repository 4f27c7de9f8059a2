package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"

	controls "github.com/goliatone/go-controls"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs a schema generator that describes the settings of
// a stack as an OpenAPI document.
func NewGenerator(opts ...GeneratorOption) controls.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Option returns a controls.Option that wires the OpenAPI schema generator
// into a Manager or Stack.
func Option(opts ...GeneratorOption) controls.Option {
	return controls.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(stack *controls.Stack) (controls.SchemaDocument, error) {
	if stack == nil {
		return controls.SchemaDocument{
			Format:   controls.SchemaFormatOpenAPI,
			Document: map[string]any{"type": "null"},
		}, nil
	}
	list := stack.Controls()
	if g.config.frontendOnly {
		list = frontendControls(list)
	}
	root, err := settingsSchema(list, stack.Types())
	if err != nil {
		return controls.SchemaDocument{}, fmt.Errorf("openapi: %s: %w", stack.Name(), err)
	}
	cfg := g.config
	cfg.path = strings.ReplaceAll(cfg.path, EntityPlaceholder, stack.Name())
	name := cfg.rootComponent
	if name == "" {
		name = componentName(stack.Name()) + "Settings"
	}
	document, err := buildDocument(cfg, name, root)
	if err != nil {
		return controls.SchemaDocument{}, err
	}
	return controls.SchemaDocument{
		Format:   controls.SchemaFormatOpenAPI,
		Stack:    stack.Name(),
		Document: document,
	}, nil
}

func frontendControls(list []controls.Control) []controls.Control {
	out := make([]controls.Control, 0, len(list))
	for _, control := range list {
		if control.FrontendAvailable {
			out = append(out, control)
		}
	}
	return out
}

// settingsSchema describes one property per data control.
func settingsSchema(list []controls.Control, types controls.TypeLookup) (map[string]any, error) {
	properties := map[string]any{}
	for _, control := range list {
		controlType, ok := types.Lookup(control.Type)
		if !ok || !controlType.IsDataControl() {
			continue
		}
		schema, err := controlSchema(control, types)
		if err != nil {
			return nil, err
		}
		properties[control.Name] = schema
		if control.Dynamic != nil && control.Dynamic.Active {
			properties[controls.DynamicSettingPrefix+control.Name] = map[string]any{
				"type":        "string",
				"description": "Dynamic tag text resolved into " + control.Name,
			}
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}, nil
}

func controlSchema(control controls.Control, types controls.TypeLookup) (map[string]any, error) {
	var schema map[string]any
	if control.Type == controls.TypeRepeater {
		row, err := settingsSchema(control.Fields, types)
		if err != nil {
			return nil, err
		}
		schema = map[string]any{"type": "array", "items": row}
	} else {
		built, err := buildSchema(reflect.ValueOf(control.Default))
		if err != nil {
			return nil, fmt.Errorf("control %q: %w", control.Name, err)
		}
		schema = built
		if schema["type"] == "null" {
			schema = map[string]any{"type": "string"}
		}
	}
	if enum := optionKeys(control); len(enum) > 0 && schema["type"] == "string" {
		schema["enum"] = enum
	}
	if control.Default != nil {
		schema["default"] = control.Default
	}
	if control.Label != "" {
		schema["title"] = control.Label
	}
	meta := map[string]any{"type": control.Type}
	if control.Section != "" {
		meta["section"] = control.Section
	}
	if control.Tab != "" {
		meta["tab"] = control.Tab
	}
	if control.Responsive != nil && control.Responsive.Max != "" {
		meta["device"] = control.Responsive.Max
	}
	if control.FrontendAvailable {
		meta["frontend_available"] = true
	}
	schema["x-control"] = meta
	return schema, nil
}

// optionKeys lists the keys of a select-like "options" map, including the
// default so the enum never rejects it.
func optionKeys(control controls.Control) []any {
	options, ok := control.Extra["options"].(map[string]any)
	if !ok || len(options) == 0 {
		return nil
	}
	keys := make([]string, 0, len(options)+1)
	for key := range options {
		keys = append(keys, key)
	}
	if def, ok := control.Default.(string); ok {
		if _, listed := options[def]; !listed {
			keys = append(keys, def)
		}
	}
	sort.Strings(keys)
	out := make([]any, len(keys))
	for i, key := range keys {
		out[i] = key
	}
	return out
}

// componentName turns an entity name into a component identifier:
// "image-box" becomes "ImageBox".
func componentName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Entity"
	}
	return b.String()
}

func buildSchema(rv reflect.Value) (map[string]any, error) {
	if !rv.IsValid() {
		return map[string]any{"type": "null"}, nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{"type": "null"}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return map[string]any{"type": "null"}, nil
		}
		return buildSchema(rv.Elem())
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return map[string]any{
				"type":   "string",
				"format": "date-time",
			}, nil
		}
		return schemaForStruct(rv)
	case reflect.Map:
		return schemaForMap(rv)
	case reflect.Slice, reflect.Array:
		return schemaForSlice(rv)
	default:
		return map[string]any{
			"type":   "string",
			"format": fmt.Sprintf("go:%s", rv.Type().String()),
		}, nil
	}
}

func schemaForMap(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("openapi: map key type %s unsupported", rv.Type().Key())
	}

	keys := rv.MapKeys()
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if key.Kind() != reflect.String {
			return nil, fmt.Errorf("openapi: map key kind %s unsupported", key.Kind())
		}
		names = append(names, key.String())
	}
	sort.Strings(names)

	properties := make(map[string]any, len(names))
	for _, name := range names {
		child, err := buildSchema(rv.MapIndex(reflect.ValueOf(name)))
		if err != nil {
			return nil, err
		}
		properties[name] = child
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}, nil
}

func schemaForStruct(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	properties := map[string]any{}
	names := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if name == "" {
			continue
		}

		child, err := buildSchema(rv.Field(i))
		if err != nil {
			return nil, err
		}
		properties[name] = child
		names = append(names, name)
	}

	sort.Strings(names)
	if len(properties) == 0 {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}, nil
	}

	ordered := make(map[string]any, len(properties))
	for _, name := range names {
		ordered[name] = properties[name]
	}
	return map[string]any{
		"type":       "object",
		"properties": ordered,
	}, nil
}

func schemaForSlice(rv reflect.Value) (map[string]any, error) {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return map[string]any{
			"type":   "string",
			"format": "byte",
		}, nil
	}

	length := rv.Len()
	var itemSchema map[string]any
	var err error
	if length > 0 {
		itemSchema, err = buildSchema(rv.Index(0))
		if err != nil {
			return nil, err
		}
	} else {
		itemSchema = map[string]any{}
	}
	return map[string]any{
		"type":  "array",
		"items": itemSchema,
	}, nil
}
