package controls

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-controls/pkg/activity"
	"github.com/google/go-cmp/cmp"
)

func newButtonStack(t *testing.T, opts ...Option) *Stack {
	t.Helper()
	stack := NewStack("button", opts...)
	mustDo(t,
		func() error { return stack.StartSection("section_button", nil) },
		func() error {
			return stack.AddControl("show_title", Args{"type": TypeSwitcher, "default": "yes"})
		},
		func() error {
			return stack.AddControl("title", Args{
				"default":            "Hello",
				"frontend_available": true,
				"condition":          map[string]any{"show_title": "yes"},
				"dynamic":            map[string]any{"active": true},
			})
		},
		func() error {
			return stack.AddControl("align", Args{
				"type":               TypeChoose,
				"default":            "left",
				"prefix_class":       "align-",
				"frontend_available": true,
			})
		},
		func() error {
			return stack.AddControl("subtitle", Args{"frontend_available": true})
		},
		func() error {
			return stack.AddControl("link", Args{"type": TypeURL, "dynamic": map[string]any{"active": true}})
		},
		func() error {
			return stack.AddResponsiveControl("columns", Args{"type": TypeNumber, "default": 3, "prefix_class": "cols%s-"})
		},
		stack.EndSection,
	)
	return stack
}

func TestNewEntityAssignsID(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{})
	if entity.ID() == "" {
		t.Fatalf("expected generated id")
	}
	named := NewEntity(stack, Data{ID: " abc "})
	if named.ID() != "abc" {
		t.Fatalf("expected trimmed id, got %q", named.ID())
	}
}

func TestEntitySettingsFillDefaults(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{ID: "b1", Settings: map[string]any{"title": "Buy", "columns_mobile": 1}})

	settings := entity.Settings()
	want := map[string]any{
		"show_title":     "yes",
		"title":          "Buy",
		"align":          "left",
		"subtitle":       "",
		"link":           map[string]any{"url": "", "is_external": "", "nofollow": ""},
		"columns":        3,
		"columns_tablet": "",
		"columns_mobile": 1,
	}
	if diff := cmp.Diff(want, settings); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
	if _, ok := settings["section_button"]; ok {
		t.Fatalf("ui controls should not hold settings")
	}

	settings["title"] = "mutated"
	if value, _ := entity.Setting("title"); value != "Buy" {
		t.Fatalf("settings copy leaked into cache, got %v", value)
	}
}

func TestEntityActiveSettingsHideControls(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{Settings: map[string]any{"show_title": ""}})

	active := entity.ActiveSettings()
	if value, ok := active["title"]; !ok || value != nil {
		t.Fatalf("expected hidden title nulled, got %v (present=%v)", value, ok)
	}
	if active["align"] != "left" {
		t.Fatalf("expected visible align untouched, got %v", active["align"])
	}

	for _, control := range entity.ActiveControls() {
		if control.Name == "title" {
			t.Fatalf("hidden title returned among active controls")
		}
	}
}

func TestEntityFrontendSettingsAndClassNames(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{Settings: map[string]any{"columns_tablet": 2}})

	frontend := entity.FrontendSettings()
	want := map[string]any{"title": "Hello", "align": "left"}
	if diff := cmp.Diff(want, frontend); diff != "" {
		t.Fatalf("frontend settings mismatch (-want +got):\n%s", diff)
	}

	classes := entity.ClassNames()
	if diff := cmp.Diff([]string{"align-left", "cols-3", "cols-tablet-2"}, classes); diff != "" {
		t.Fatalf("class names mismatch (-want +got):\n%s", diff)
	}
}

func TestEntityResponsiveValueInherits(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{Settings: map[string]any{"columns_mobile": 1}})

	cases := []struct {
		device string
		value  any
		from   string
	}{
		{device: DeviceDesktop, value: 3, from: DeviceDesktop},
		{device: DeviceTablet, value: 3, from: DeviceDesktop},
		{device: DeviceMobile, value: 1, from: DeviceMobile},
	}
	for _, tc := range cases {
		value, from, ok := entity.ResponsiveValue("columns", tc.device)
		if !ok || value != tc.value || from != tc.from {
			t.Fatalf("ResponsiveValue(%s) = %v from %s (ok=%v), want %v from %s", tc.device, value, from, ok, tc.value, tc.from)
		}
	}
}

func TestEntityDynamicSettings(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{Settings: map[string]any{
		"title":         "raw title",
		"dynamic_title": `{{ "Dynamic " + "Title" }}`,
		"dynamic_link":  `{{ "/home" }}`,
	}})

	if got := entity.Settings()["title"]; got != "raw title" {
		t.Fatalf("parsed settings should keep the raw value, got %v", got)
	}
	dynamic := entity.ParsedDynamicSettings()
	if dynamic["title"] != "Dynamic Title" {
		t.Fatalf("expected resolved title, got %v", dynamic["title"])
	}
	if diff := cmp.Diff(map[string]any{"url": "/home"}, dynamic["link"]); diff != "" {
		t.Fatalf("link mismatch (-want +got):\n%s", diff)
	}
	if got := entity.DisplaySettings()["title"]; got != "Dynamic Title" {
		t.Fatalf("display settings should carry the resolved title, got %v", got)
	}
}

func TestEntityDynamicFailureKeepsValue(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{Settings: map[string]any{
		"title":         "raw title",
		"dynamic_title": `{{ broken( }}`,
	}})

	if got := entity.ParsedDynamicSettings()["title"]; got != "raw title" {
		t.Fatalf("failed tag should leave the value untouched, got %v", got)
	}
}

func TestEntityDynamicRepeaterRows(t *testing.T) {
	stack := NewStack("list")
	mustDo(t,
		func() error { return stack.StartSection("section_items", nil) },
		func() error {
			return stack.AddControl("items", Args{
				"type": TypeRepeater,
				"fields": []any{
					map[string]any{"name": "text", "type": TypeText, "dynamic": map[string]any{"active": true}},
				},
			})
		},
		stack.EndSection,
	)

	entity := NewEntity(stack, Data{Settings: map[string]any{
		"items": []any{
			map[string]any{"text": "a", "dynamic_text": ""},
			map[string]any{"text": "b", "dynamic_text": `{{ "resolved" }}`},
		},
	}})

	want := []any{
		map[string]any{"text": "a", "dynamic_text": ""},
		map[string]any{"text": "resolved", "dynamic_text": `{{ "resolved" }}`},
	}
	if diff := cmp.Diff(want, entity.ParsedDynamicSettings()["items"]); diff != "" {
		t.Fatalf("repeater rows mismatch (-want +got):\n%s", diff)
	}
}

func TestEntityRepeaterRowVisibility(t *testing.T) {
	stack := NewStack("list")
	mustDo(t,
		func() error { return stack.StartSection("section_items", nil) },
		func() error {
			return stack.AddControl("items", Args{
				"type": TypeRepeater,
				"fields": []any{
					map[string]any{"name": "kind", "type": TypeSelect, "default": "text"},
					map[string]any{"name": "icon", "type": TypeText, "condition": map[string]any{"kind": "icon"}},
				},
			})
		},
		stack.EndSection,
	)

	entity := NewEntity(stack, Data{Settings: map[string]any{
		"items": []any{
			map[string]any{"kind": "icon", "icon": "star"},
			map[string]any{"icon": "ignored"},
		},
	}})

	want := []any{
		map[string]any{"kind": "icon", "icon": "star"},
		map[string]any{"kind": "text", "icon": nil},
	}
	if diff := cmp.Diff(want, entity.ActiveSettings()["items"]); diff != "" {
		t.Fatalf("active rows mismatch (-want +got):\n%s", diff)
	}
}

func TestEntityCacheFollowsStack(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{})
	_ = entity.Settings()

	if err := stack.AddControl("caption", Args{"section": "section_button", "default": "Note"}); err != nil {
		t.Fatalf("add control: %v", err)
	}
	if got := entity.Settings()["caption"]; got != "Note" {
		t.Fatalf("expected new control in settings, got %v", got)
	}

	entity.SetData(Data{Settings: map[string]any{"caption": "Changed"}})
	if got := entity.Settings()["caption"]; got != "Changed" {
		t.Fatalf("expected SetData to reset settings, got %v", got)
	}
}

func TestEntitySetSettingsEmitsActivity(t *testing.T) {
	hook := &activity.CaptureHook{}
	stack := newButtonStack(t, WithActivityHooks(activity.Hooks{hook}))
	entity := NewEntity(stack, Data{ID: "b1"})

	ctx := activity.WithActor(context.Background(), activity.Actor{ActorID: "editor-1", TenantID: "acme"})
	if err := entity.SetSettings(ctx, "title", "Hi"); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}
	if got, _ := entity.Setting("title"); got != "Hi" {
		t.Fatalf("expected updated title, got %v", got)
	}
	if len(hook.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(hook.Events))
	}
	event := hook.Events[0]
	if event.Verb != activity.VerbSettingsUpdated || event.ObjectType != activity.ObjectEntity || event.ObjectID != "b1" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Actor.ActorID != "editor-1" || event.Actor.TenantID != "acme" {
		t.Fatalf("expected actor from context, got %+v", event)
	}
	if event.Metadata["old_value"] != "Hello" || event.Metadata["new_value"] != "Hi" {
		t.Fatalf("unexpected metadata %v", event.Metadata)
	}
	if diff := cmp.Diff([]string{"title"}, event.Metadata["keys"]); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	if err := entity.ResetSettings(ctx); err != nil {
		t.Fatalf("ResetSettings: %v", err)
	}
	if len(hook.Events) != 2 || hook.Events[1].Verb != activity.VerbSettingsReset {
		t.Fatalf("expected reset event, got %+v", hook.Events)
	}
}

func TestEntitySetSettingsHookFailure(t *testing.T) {
	boom := errors.New("sink down")
	hook := &activity.CaptureHook{Err: boom}
	stack := newButtonStack(t, WithActivityHooks(activity.Hooks{hook}))
	entity := NewEntity(stack, Data{})

	err := entity.SetSettings(context.Background(), "title", "Kept")
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if got, _ := entity.Setting("title"); got != "Kept" {
		t.Fatalf("write should stick after hook failure, got %v", got)
	}

	if err := entity.SetSettings(context.Background(), " ", "x"); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestEntityTrace(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{ID: "b1", Settings: map[string]any{"title": "Buy"}})

	trace, err := entity.Trace("title")
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	var sources []TraceSource
	for _, layer := range trace.Layers {
		sources = append(sources, layer.Source)
	}
	wantSources := []TraceSource{SourceDynamic, SourceRaw, SourceDefault, SourceTypeDefault}
	if diff := cmp.Diff(wantSources, sources); diff != "" {
		t.Fatalf("layer sources mismatch (-want +got):\n%s", diff)
	}
	winner, ok := trace.Winner()
	if !ok || winner.Source != SourceRaw || winner.Value != "Buy" {
		t.Fatalf("unexpected winner %+v", winner)
	}
	if trace.Value != "Buy" || trace.Entity != "b1" {
		t.Fatalf("unexpected trace %+v", trace)
	}

	tablet, err := entity.Trace("columns_tablet")
	if err != nil {
		t.Fatalf("Trace: %v", err)
	}
	last := tablet.Layers[len(tablet.Layers)-1]
	if last.Source != SourceInherited || last.Key != "columns" || last.Value != 3 || !last.Found {
		t.Fatalf("expected inherited desktop layer, got %+v", last)
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("TraceFromJSON: %v", err)
	}
	if decoded.Path != "title" || len(decoded.Layers) != len(trace.Layers) {
		t.Fatalf("unexpected decoded trace %+v", decoded)
	}

	if _, err := entity.Trace("missing"); !errors.Is(err, ErrControlNotFound) {
		t.Fatalf("expected ErrControlNotFound, got %v", err)
	}
}

func TestEntityEvaluate(t *testing.T) {
	stack := newButtonStack(t)
	entity := NewEntity(stack, Data{ID: "b1", Settings: map[string]any{"align": "right"}})

	got, err := entity.Evaluate(`align == "right" && metadata.stack == "button" && entity == "b1"`)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}
}
