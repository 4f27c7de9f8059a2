package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	controls "github.com/goliatone/go-controls"
	"github.com/goliatone/go-controls/groups"
	"github.com/google/go-cmp/cmp"
)

const buttonYAML = `
name: button
sections:
  - id: section_button
    label: Button
    controls:
      - id: text
        label: Text
        default: Click here
        dynamic:
          active: true
      - id: align
        type: choose
        default: left
        prefix_class: align-
        options:
          left: Left
          right: Right
      - id: size
        responsive: true
        type: slider
  - id: section_style
    tab: style
    controls:
      - tabs:
          id: style_tabs
          tabs:
            - id: tab_normal
              label: Normal
              controls:
                - id: color
                  type: color
            - id: tab_hover
              label: Hover
              controls:
                - id: hover_color
                  type: color
      - group: border
        id: button
      - popover:
          - id: shadow_x
            type: number
          - id: shadow_y
            type: number
injections:
  - position:
      of: text
    controls:
      - id: icon
        type: media
`

func TestParseYAMLFoldsShorthand(t *testing.T) {
	doc, err := Parse([]byte(buttonYAML), FormatYAML, "widgets/button.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Name != "button" || doc.Source != "widgets/button.yaml" {
		t.Fatalf("unexpected document header %q %q", doc.Name, doc.Source)
	}
	if len(doc.Sections) != 2 || len(doc.Injections) != 1 {
		t.Fatalf("unexpected document shape %+v", doc)
	}
	if diff := cmp.Diff(map[string]any{"label": "Button"}, doc.Sections[0].Args); diff != "" {
		t.Fatalf("section args mismatch (-want +got):\n%s", diff)
	}
	text := doc.Sections[0].Controls[0]
	if text.ID != "text" || text.Args["default"] != "Click here" || text.Args["label"] != "Text" {
		t.Fatalf("unexpected text entry %+v", text)
	}
	if !doc.Sections[0].Controls[2].Responsive {
		t.Fatalf("expected responsive entry")
	}
	tabs := doc.Sections[1].Controls[0].Tabs
	if tabs == nil || len(tabs.Tabs) != 2 || tabs.Tabs[0].Args["label"] != "Normal" {
		t.Fatalf("unexpected tabs entry %+v", tabs)
	}
	if doc.Injections[0].Position.Of != "text" {
		t.Fatalf("unexpected injection %+v", doc.Injections[0])
	}
}

func TestParseJSONDefaultsNameToFile(t *testing.T) {
	payload := `{"sections":[{"id":"section_a","controls":[{"id":"title","default":"Hi"}]}]}`
	doc, err := Parse([]byte(payload), FormatJSON, "/defs/heading.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Name != "heading" {
		t.Fatalf("expected name from file, got %q", doc.Name)
	}
	if doc.Sections[0].Controls[0].Args["default"] != "Hi" {
		t.Fatalf("unexpected controls %+v", doc.Sections[0].Controls)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"missing section id": `{"name":"x","sections":[{"controls":[]}]}`,
		"missing control id": `{"name":"x","sections":[{"id":"s","controls":[{"label":"nope"}]}]}`,
		"mixed shapes":       `{"name":"x","sections":[{"id":"s","controls":[{"id":"a","group":"border","responsive":true}]}]}`,
		"tab without id":     `{"name":"x","sections":[{"id":"s","controls":[{"tabs":{"id":"t","tabs":[{}]}}]}]}`,
		"injection target":   `{"name":"x","injections":[{"position":{},"controls":[]}]}`,
		"unknown field":      `{"name":"x","extra":true}`,
		"malformed":          `{"name":`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(payload), FormatJSON, "inline"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := Parse(nil, Format("toml"), "x.toml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestApplyBuildsStack(t *testing.T) {
	doc, err := Parse([]byte(buttonYAML), FormatYAML, "button.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	stack := controls.NewStack(doc.Name, controls.WithGroupRegistry(groups.Default()))
	if err := Apply(stack, doc); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := []string{
		"section_button", "text", "icon", "align", "size", "size_tablet", "size_mobile",
		"section_style", "style_tabs", "tab_normal", "color", "tab_hover", "hover_color",
		"button_border", "button_width", "button_width_tablet", "button_width_mobile", "button_color",
		"shadow_x", "shadow_y",
	}
	if diff := cmp.Diff(want, stack.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	hover, _ := stack.Get("hover_color")
	if hover.TabsWrapper != "style_tabs" || hover.InnerTab != "tab_hover" || hover.Tab != controls.TabStyle {
		t.Fatalf("unexpected hover placement %+v", hover)
	}
	icon, _ := stack.Get("icon")
	if icon.Section != "section_button" {
		t.Fatalf("expected injected icon in section_button, got %q", icon.Section)
	}
	shadowY, _ := stack.Get("shadow_y")
	if shadowY.Popover == nil || !shadowY.Popover.End {
		t.Fatalf("expected popover end on shadow_y, got %+v", shadowY.Popover)
	}
	if !stack.State().Idle() {
		t.Fatalf("expected idle builder state after Apply")
	}
}

func TestApplyReportsUsageErrors(t *testing.T) {
	doc := Document{
		Name: "broken",
		Sections: []Section{{
			ID:       "section_a",
			Controls: []Entry{{ID: "title"}, {ID: "title"}},
		}},
	}
	stack := controls.NewStack(doc.Name)
	err := Apply(stack, doc)
	if !errors.Is(err, controls.ErrControlExists) {
		t.Fatalf("expected ErrControlExists, got %v", err)
	}
	if !stack.Has("title") {
		t.Fatalf("controls written before the failure should stay")
	}

	injected := Document{
		Name:       "injected",
		Injections: []Injection{{Position: Position{Of: "missing"}, Controls: []Entry{{ID: "x"}}}},
	}
	if err := Apply(controls.NewStack("injected"), injected); !errors.Is(err, controls.ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestEntityTypeWithManager(t *testing.T) {
	doc, err := Parse([]byte(buttonYAML), FormatYAML, "button.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	manager := controls.NewManager(controls.WithGroupRegistry(groups.Default()))
	entity, err := manager.NewEntity(context.Background(), EntityType(doc), controls.Data{ID: "b1"})
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}
	if got, _ := entity.Setting("text"); got != "Click here" {
		t.Fatalf("expected default text, got %v", got)
	}
	if diff := cmp.Diff([]string{"align-left"}, entity.ClassNames()); diff != "" {
		t.Fatalf("class names mismatch (-want +got):\n%s", diff)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "sections:\n  - id: s\n    controls:\n      - id: title\n")
	writeFile(t, filepath.Join(dir, "a.json"), `{"name":"alpha","sections":[]}`)
	writeFile(t, filepath.Join(dir, ".hidden.yaml"), "not: [valid")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	docs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	var names []string
	for _, doc := range docs {
		names = append(names, doc.Name)
	}
	if diff := cmp.Diff([]string{"alpha", "b"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	writeFile(t, filepath.Join(dir, "c.yml"), "name: alpha\n")
	if _, err := LoadDir(dir); err == nil || !strings.Contains(err.Error(), "redeclares") {
		t.Fatalf("expected duplicate name error, got %v", err)
	}

	if _, err := LoadFile(filepath.Join(dir, "notes.txt")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
