package controls

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Stack    string
	Document any
}

// SchemaGenerator describes the settings of a stack. Implementations must be
// safe for concurrent use and return an empty document for a nil stack.
type SchemaGenerator interface {
	Generate(stack *Stack) (SchemaDocument, error)
}

// SchemaGeneratorFunc adapts a function into a SchemaGenerator.
type SchemaGeneratorFunc func(stack *Stack) (SchemaDocument, error)

// Generate delegates to the underlying function.
func (fn SchemaGeneratorFunc) Generate(stack *Stack) (SchemaDocument, error) {
	return fn(stack)
}

// FieldDescriptor describes one settings path. Control is the stored control
// the path belongs to; nested paths of map defaults and repeater rows share
// the control of their root.
type FieldDescriptor struct {
	Path      string `json:"path"`
	Type      string `json:"type"`
	ValueType string `json:"value_type"`
	Control   string `json:"control"`
	Section   string `json:"section,omitempty"`
	Tab       string `json:"tab,omitempty"`
	Device    string `json:"device,omitempty"`
	Default   any    `json:"default,omitempty"`
}

// Schema renders the stack through the configured schema generator.
func (s *Stack) Schema() (SchemaDocument, error) {
	generator := s.cfg.schemaGenerator
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	return generator.Generate(s)
}

// DefaultSchemaGenerator returns the built-in descriptor-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(stack *Stack) (SchemaDocument, error) {
	if stack == nil {
		return SchemaDocument{Format: SchemaFormatDescriptors, Document: []FieldDescriptor{}}, nil
	}
	descriptors := []FieldDescriptor{}
	for _, control := range stack.Controls() {
		controlType, ok := stack.Types().Lookup(control.Type)
		if !ok || !controlType.IsDataControl() {
			continue
		}
		descriptors = append(descriptors, describeControl(control, control.Name, stack.Types())...)
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Stack:    stack.Name(),
		Document: descriptors,
	}, nil
}

func describeControl(control Control, path string, types TypeLookup) []FieldDescriptor {
	root := FieldDescriptor{
		Path:      path,
		Type:      control.Type,
		ValueType: typeName(control.Default),
		Control:   control.Name,
		Section:   control.Section,
		Tab:       control.Tab,
		Default:   control.Default,
	}
	if control.Responsive != nil {
		root.Device = control.Responsive.Max
	}
	out := []FieldDescriptor{root}

	if defaults, ok := control.Default.(map[string]any); ok && len(defaults) > 0 {
		for _, nested := range deriveFieldDescriptors(defaults, path) {
			nested.Type = control.Type
			nested.Control = root.Control
			nested.Section = root.Section
			nested.Tab = root.Tab
			nested.Device = root.Device
			out = append(out, nested)
		}
	}

	for _, field := range control.Fields {
		fieldType, ok := lookupType(types, field.Type)
		if !ok || !fieldType.IsDataControl() {
			continue
		}
		for _, nested := range describeControl(field, joinPath(path+"[]", field.Name), types) {
			nested.Control = root.Control
			nested.Section = root.Section
			nested.Tab = root.Tab
			out = append(out, nested)
		}
	}
	return out
}

// deriveFieldDescriptors flattens a default value into dotted paths.
func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	if value == nil {
		return nil
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			return []FieldDescriptor{{
				Path:      prefix,
				ValueType: "map[string]any",
			}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			nextPrefix := joinPath(prefix, key)
			fields = append(fields, deriveFieldDescriptors(typed[key], nextPrefix)...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{
			Path:      prefix,
			ValueType: "[]" + elementType,
			Default:   typed,
		}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{
			Path:      prefix,
			ValueType: typeName(typed),
			Default:   typed,
		}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
