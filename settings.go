package controls

import (
	"fmt"
	"log/slog"

	"github.com/goliatone/go-controls/layering"
)

// resolver turns raw entity data into settings views. It holds no state of
// its own; Entity caches its results.
type resolver struct {
	types      TypeLookup
	conditions ConditionsEngine
	tags       TagEngine
	logger     *slog.Logger
	entity     string
}

func (r resolver) dataType(control Control) (ControlType, bool) {
	controlType, ok := lookupType(r.types, control.Type)
	if !ok || !controlType.IsDataControl() {
		return nil, false
	}
	return controlType, true
}

// parsedSettings computes the value of every data control in declaration
// order. A control with active dynamic resolution and non-empty tag text
// keeps its raw value; the tag is resolved later by parseDynamic.
func (r resolver) parsedSettings(controls []Control, raw map[string]any) map[string]any {
	settings := make(map[string]any, len(controls))
	for _, control := range controls {
		controlType, ok := r.dataType(control)
		if !ok {
			continue
		}
		if hasDynamicTag(control, raw) {
			settings[control.Name] = layering.Clone(raw[control.Name])
			continue
		}
		settings[control.Name] = controlType.Value(control, raw, r.types)
	}
	return settings
}

func hasDynamicTag(control Control, all map[string]any) bool {
	if control.Dynamic == nil || !control.Dynamic.Active {
		return false
	}
	return !isEmpty(all[DynamicSettingPrefix+control.Name])
}

// parseDynamic replaces the values of dynamic controls by the output of the
// tag engine. Repeater rows are walked with the repeater fields, each row
// serving as its own source of tag text. A failing tag leaves the value
// untouched.
func (r resolver) parseDynamic(settings map[string]any, controls []Control, all map[string]any) map[string]any {
	out := layering.CloneMap(settings)
	if out == nil {
		out = map[string]any{}
	}
	for _, control := range controls {
		value, ok := out[control.Name]
		if !ok {
			continue
		}
		if control.Type == TypeRepeater {
			rows := rowsOf(value)
			if rows == nil {
				continue
			}
			parsed := make([]any, len(rows))
			for i, row := range rows {
				parsed[i] = r.parseDynamic(row, control.Fields, row)
			}
			out[control.Name] = parsed
			continue
		}
		if !hasDynamicTag(control, all) {
			continue
		}
		resolved, err := r.parseTag(control, all[DynamicSettingPrefix+control.Name])
		if err != nil {
			r.logger.Warn("controls: dynamic tag failed",
				slog.String("entity", r.entity),
				slog.String("control", control.Name),
				slog.Any("error", err),
			)
			continue
		}
		if property := control.Dynamic.Property; property != "" {
			current, _ := value.(map[string]any)
			current = layering.CloneMap(current)
			if current == nil {
				current = map[string]any{}
			}
			current[property] = resolved
			out[control.Name] = current
			continue
		}
		out[control.Name] = resolved
	}
	return out
}

func (r resolver) parseTag(control Control, tag any) (any, error) {
	if r.tags == nil {
		return nil, fmt.Errorf("controls: no tag engine configured")
	}
	text, ok := tag.(string)
	if !ok {
		return nil, fmt.Errorf("controls: tag text of %q must be a string, got %T", control.Name, tag)
	}
	dynamic, _ := control.Args()[keyDynamic].(map[string]any)
	return r.tags.ParseTags(text, dynamic)
}

// visible wraps IsVisible, logging engine failures and hiding the control.
func (r resolver) visible(control Control, values map[string]any) bool {
	ok, err := IsVisible(control, values, r.conditions)
	if err != nil {
		r.logger.Warn("controls: visibility check failed",
			slog.String("entity", r.entity),
			slog.String("control", control.Name),
			slog.Any("error", err),
		)
		return false
	}
	return ok
}

// activeControls keeps the controls visible for values.
func (r resolver) activeControls(controls []Control, values map[string]any) []Control {
	out := make([]Control, 0, len(controls))
	for _, control := range controls {
		if r.visible(control, values) {
			out = append(out, control)
		}
	}
	return out
}

// activeSettings nulls the values of hidden data controls. Repeater rows are
// filtered field by field against the row itself.
func (r resolver) activeSettings(settings map[string]any, controls []Control) map[string]any {
	out := layering.CloneMap(settings)
	if out == nil {
		out = map[string]any{}
	}
	for _, control := range controls {
		if _, ok := r.dataType(control); !ok {
			continue
		}
		value, ok := out[control.Name]
		if !ok {
			continue
		}
		if !r.visible(control, settings) {
			out[control.Name] = nil
			continue
		}
		if control.Type != TypeRepeater {
			continue
		}
		rows := rowsOf(value)
		if rows == nil {
			continue
		}
		filtered := make([]any, len(rows))
		for i, row := range rows {
			filtered[i] = r.activeSettings(row, control.Fields)
		}
		out[control.Name] = filtered
	}
	return out
}
