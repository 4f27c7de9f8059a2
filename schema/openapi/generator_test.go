package openapi

import (
	"context"
	"slices"
	"testing"

	controls "github.com/goliatone/go-controls"
	"github.com/google/go-cmp/cmp"
)

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Custom Service", "2.0.0", "custom schema"),
		WithOperation("/elements/{entity}", "POST", "saveElement"),
		WithSummary(" Save element "),
		WithContentType("application/x-www-form-urlencoded"),
		WithResponse("201", "Created"),
		WithRootComponent("Element"),
		WithFrontendOnly(),
		WithReadOperation(),
	)

	internal, ok := custom.(generator)
	if !ok {
		t.Fatalf("expected generator implementation, got %T", custom)
	}

	want := generatorConfig{
		openAPIVersion: "3.1.0",
		title:          "Custom Service",
		version:        "2.0.0",
		description:    "custom schema",
		path:           "/elements/{entity}",
		method:         "post",
		operationID:    "saveElement",
		summary:        "Save element",
		contentType:    "application/x-www-form-urlencoded",
		responses:      map[string]string{"201": "Created", "204": "Settings saved"},
		rootComponent:  "Element",
		frontendOnly:   true,
		readOperation:  true,
	}
	if diff := cmp.Diff(want, internal.config, cmp.AllowUnexported(generatorConfig{})); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func buildHeadingStack(t *testing.T) *controls.Stack {
	t.Helper()
	stack := controls.NewStack("image-box", Option())
	steps := []func() error{
		func() error { return stack.StartSection("section_title", controls.Args{"label": "Title"}) },
		func() error {
			return stack.AddControl("title", controls.Args{
				"label":              "Title",
				"default":            "Hello",
				"frontend_available": true,
				"dynamic":            map[string]any{"active": true},
			})
		},
		func() error { return stack.AddControl("heading", controls.Args{"type": controls.TypeHeading}) },
		func() error {
			return stack.AddControl("align", controls.Args{
				"type":    controls.TypeChoose,
				"options": map[string]any{"left": "Left", "right": "Right"},
				"default": "left",
			})
		},
		func() error {
			return stack.AddResponsiveControl("size", controls.Args{"type": controls.TypeSlider})
		},
		func() error {
			return stack.AddControl("items", controls.Args{
				"type":   controls.TypeRepeater,
				"fields": []any{map[string]any{"name": "text", "type": controls.TypeText}},
			})
		},
		stack.EndSection,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("build stack: %v", err)
		}
	}
	return stack
}

func TestGeneratorDescribesDataControls(t *testing.T) {
	stack := buildHeadingStack(t)

	doc, err := stack.Schema()
	if err != nil {
		t.Fatalf("Schema returned error: %v", err)
	}
	if doc.Format != controls.SchemaFormatOpenAPI {
		t.Fatalf("expected format %q, got %q", controls.SchemaFormatOpenAPI, doc.Format)
	}
	document, ok := doc.Document.(map[string]any)
	if !ok {
		t.Fatalf("expected document map, got %T", doc.Document)
	}

	components := document["components"].(map[string]any)["schemas"].(map[string]any)
	root, ok := components["ImageBoxSettings"].(map[string]any)
	if !ok {
		t.Fatalf("expected ImageBoxSettings component, got %v", components)
	}
	properties := root["properties"].(map[string]any)

	var names []string
	for name := range properties {
		names = append(names, name)
	}
	want := []string{"align", "dynamic_title", "items", "size", "size_mobile", "size_tablet", "title"}
	if diff := cmp.Diff(want, slices.Sorted(slices.Values(names))); diff != "" {
		t.Fatalf("property names mismatch (-want +got):\n%s", diff)
	}

	title := properties["title"].(map[string]any)
	if title["type"] != "string" || title["default"] != "Hello" || title["title"] != "Title" {
		t.Fatalf("unexpected title schema %#v", title)
	}
	meta := title["x-control"].(map[string]any)
	if meta["section"] != "section_title" || meta["frontend_available"] != true {
		t.Fatalf("unexpected title metadata %#v", meta)
	}

	align := properties["align"].(map[string]any)
	if diff := cmp.Diff([]any{"left", "right"}, align["enum"]); diff != "" {
		t.Fatalf("align enum mismatch (-want +got):\n%s", diff)
	}

	size := properties["size_mobile"].(map[string]any)
	if size["type"] != "object" || size["x-control"].(map[string]any)["device"] != controls.DeviceMobile {
		t.Fatalf("unexpected size_mobile schema %#v", size)
	}

	items := properties["items"].(map[string]any)
	row := items["items"].(map[string]any)["properties"].(map[string]any)
	if _, ok := row["text"]; !ok {
		t.Fatalf("expected repeater row to describe text, got %#v", row)
	}

	paths := document["paths"].(map[string]any)
	if _, ok := paths["/settings"].(map[string]any)["put"]; !ok {
		t.Fatalf("expected put /settings operation, got %#v", paths)
	}

	if err := Validate(context.Background(), document); err != nil {
		t.Fatalf("generated document failed validation: %v", err)
	}
}

func TestGeneratorSubstitutesEntityInPath(t *testing.T) {
	stack := controls.NewStack("heading", Option(WithOperation("/elements/{entity}/settings", "", "")))
	doc, err := stack.Schema()
	if err != nil {
		t.Fatalf("Schema returned error: %v", err)
	}
	paths := doc.Document.(map[string]any)["paths"].(map[string]any)
	operation, ok := paths["/elements/heading/settings"].(map[string]any)["put"].(map[string]any)
	if !ok {
		t.Fatalf("expected substituted path, got %#v", paths)
	}
	if operation["operationId"] != "put:/elements/heading/settings" {
		t.Fatalf("unexpected operation id %v", operation["operationId"])
	}
}

func TestGeneratorFrontendOnlyWithReadOperation(t *testing.T) {
	stack := buildHeadingStack(t)
	doc, err := NewGenerator(WithFrontendOnly(), WithReadOperation()).Generate(stack)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	document := doc.Document.(map[string]any)
	schemas := document["components"].(map[string]any)["schemas"].(map[string]any)
	properties := schemas["ImageBoxSettings"].(map[string]any)["properties"].(map[string]any)
	var names []string
	for name := range properties {
		names = append(names, name)
	}
	slices.Sort(names)
	if diff := cmp.Diff([]string{"dynamic_title", "title"}, names); diff != "" {
		t.Fatalf("frontend properties mismatch (-want +got):\n%s", diff)
	}

	item := document["paths"].(map[string]any)["/settings"].(map[string]any)
	if _, ok := item["get"]; !ok {
		t.Fatalf("expected read operation, got %#v", item)
	}
	if err := Validate(context.Background(), document); err != nil {
		t.Fatalf("generated document failed validation: %v", err)
	}
}

func TestGeneratorNil(t *testing.T) {
	doc, err := NewGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if doc.Format != controls.SchemaFormatOpenAPI {
		t.Fatalf("expected format %q, got %q", controls.SchemaFormatOpenAPI, doc.Format)
	}
	if diff := cmp.Diff(map[string]any{"type": "null"}, doc.Document); diff != "" {
		t.Fatalf("nil document mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsBrokenDocument(t *testing.T) {
	err := Validate(context.Background(), map[string]any{"openapi": "3.0.3"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestComponentName(t *testing.T) {
	cases := map[string]string{
		"heading":   "Heading",
		"image-box": "ImageBox",
		"icon_list": "IconList",
		"---":       "Entity",
	}
	for input, want := range cases {
		if got := componentName(input); got != want {
			t.Fatalf("componentName(%q) = %q, want %q", input, got, want)
		}
	}
}
