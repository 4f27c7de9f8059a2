package controls

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-controls/layering"
	"github.com/goliatone/go-controls/pkg/activity"
	"github.com/google/uuid"
)

// Data is the raw stored state of an entity: its id and the settings blob
// keyed by control name.
type Data struct {
	ID       string         `json:"id"`
	Settings map[string]any `json:"settings"`
}

// Entity is one element instance: raw data resolved against the controls of
// its stack. Settings views are computed lazily and cached until the raw data
// or the stack changes.
type Entity struct {
	mu    sync.Mutex
	stack *Stack
	id    string
	raw   map[string]any
	cache settingsCache
}

type settingsCache struct {
	version  uint64
	parsed   map[string]any
	display  map[string]any
	controls []Control
}

// NewEntity binds data to stack. An empty id is replaced by a random UUID.
func NewEntity(stack *Stack, data Data) *Entity {
	id := strings.TrimSpace(data.ID)
	if id == "" {
		id = uuid.NewString()
	}
	raw := layering.CloneMap(data.Settings)
	if raw == nil {
		raw = map[string]any{}
	}
	return &Entity{stack: stack, id: id, raw: raw}
}

// ID returns the entity id.
func (e *Entity) ID() string {
	return e.id
}

// Stack returns the stack the entity resolves against.
func (e *Entity) Stack() *Stack {
	return e.stack
}

// Data returns a copy of the raw entity data.
func (e *Entity) Data() Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Data{ID: e.id, Settings: layering.CloneMap(e.raw)}
}

// SetData replaces the raw settings. The id is kept unless data carries one.
func (e *Entity) SetData(data Data) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id := strings.TrimSpace(data.ID); id != "" {
		e.id = id
	}
	e.raw = layering.CloneMap(data.Settings)
	if e.raw == nil {
		e.raw = map[string]any{}
	}
	e.cache = settingsCache{}
}

// Settings returns the parsed settings: raw values with control defaults
// filled in for every data control.
func (e *Entity) Settings() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return layering.CloneMap(e.parsed())
}

// Setting returns one parsed setting.
func (e *Entity) Setting(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	value, ok := e.parsed()[name]
	return layering.Clone(value), ok
}

// SetSettings writes one raw setting and reports it to the activity hooks.
// The write sticks even when an activity hook fails; the hook error is
// returned.
func (e *Entity) SetSettings(ctx context.Context, name string, value any) error {
	if strings.TrimSpace(name) == "" {
		return usageError("set_settings", name, ErrEmptyName)
	}
	e.mu.Lock()
	old, _ := e.parsed()[name]
	old = layering.Clone(old)
	e.raw[name] = layering.Clone(value)
	e.cache = settingsCache{}
	current, _ := e.parsed()[name]
	current = layering.Clone(current)
	e.mu.Unlock()

	return e.emit(ctx, activity.SettingsUpdated(e.stack.Name(), e.id, e.stack.Version(), name, old, current))
}

// ResetSettings drops the cached settings views so the next read recomputes
// them from the raw data.
func (e *Entity) ResetSettings(ctx context.Context) error {
	e.mu.Lock()
	e.cache = settingsCache{}
	e.mu.Unlock()
	return e.emit(ctx, activity.SettingsReset(e.stack.Name(), e.id, e.stack.Version()))
}

// ActiveControls returns the controls visible for the current settings.
func (e *Entity) ActiveControls() []Control {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parsed()
	if e.cache.controls == nil {
		e.cache.controls = e.resolver().activeControls(e.stack.Controls(), e.cache.parsed)
	}
	out := make([]Control, len(e.cache.controls))
	for i, control := range e.cache.controls {
		out[i] = control.Clone()
	}
	return out
}

// ActiveSettings returns the parsed settings with the values of hidden
// controls set to nil.
func (e *Entity) ActiveSettings() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver().activeSettings(e.parsed(), e.stack.Controls())
}

// ParsedDynamicSettings returns the parsed settings with dynamic tags
// resolved.
func (e *Entity) ParsedDynamicSettings() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return layering.CloneMap(e.dynamic())
}

// DisplaySettings returns the dynamic settings with hidden controls nulled.
func (e *Entity) DisplaySettings() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver().activeSettings(e.dynamic(), e.stack.Controls())
}

// FrontendSettings returns the display values of controls flagged
// frontend_available, leaving out nil and empty strings.
func (e *Entity) FrontendSettings() map[string]any {
	display := e.DisplaySettings()
	out := map[string]any{}
	for _, control := range e.stack.Controls() {
		if !control.FrontendAvailable {
			continue
		}
		value, ok := display[control.Name]
		if !ok || value == nil || value == "" {
			continue
		}
		out[control.Name] = value
	}
	return out
}

// ClassNames returns prefix_class+value for visible controls holding a
// non-empty scalar, in declaration order.
func (e *Entity) ClassNames() []string {
	display := e.DisplaySettings()
	var out []string
	for _, control := range e.ActiveControls() {
		if control.PrefixClass == "" {
			continue
		}
		value := display[control.Name]
		if isEmpty(value) || isList(value) {
			continue
		}
		if _, isMap := value.(map[string]any); isMap {
			continue
		}
		out = append(out, control.PrefixClass+fmt.Sprint(value))
	}
	return out
}

// ResponsiveValue returns the value of the responsive control id for device.
// An empty variant inherits from the next wider device. The device the value
// came from is returned alongside it.
func (e *Entity) ResponsiveValue(id, device string) (any, string, bool) {
	settings := e.Settings()
	chain := layering.NewDeviceChain(Devices()...)
	return chain.Inherit(device, func(candidate string) (any, bool) {
		value, ok := settings[ResponsiveKey(id, candidate)]
		return value, ok && !isEmpty(value)
	})
}

// Trace reports every layer consulted when resolving the setting name.
func (e *Entity) Trace(name string) (Trace, error) {
	control, ok := e.stack.Get(name)
	if !ok {
		return Trace{Entity: e.id, Path: name}, ErrControlNotFound
	}
	e.mu.Lock()
	raw := layering.CloneMap(e.raw)
	value := layering.Clone(e.dynamic()[name])
	e.mu.Unlock()

	trace := Trace{Entity: e.id, Path: name, Value: value}
	if control.Dynamic != nil && control.Dynamic.Active {
		key := DynamicSettingPrefix + name
		tag := raw[key]
		trace.Layers = append(trace.Layers, Provenance{Source: SourceDynamic, Key: key, Value: tag, Found: !isEmpty(tag)})
	}
	rawValue, hasRaw := raw[name]
	trace.Layers = append(trace.Layers,
		Provenance{Source: SourceRaw, Key: name, Value: rawValue, Found: hasRaw && rawValue != nil},
		Provenance{Source: SourceDefault, Key: name, Value: control.Default, Found: control.Default != nil},
	)
	if controlType, ok := e.stack.Types().Lookup(control.Type); ok && controlType.IsDataControl() {
		trace.Layers = append(trace.Layers, Provenance{
			Source: SourceTypeDefault,
			Key:    control.Type,
			Value:  controlType.DefaultValue(),
			Found:  control.Default == nil,
		})
	}
	if control.Responsive != nil && control.Responsive.Max != "" && control.Responsive.Max != DeviceDesktop {
		base := strings.TrimSuffix(name, "_"+control.Responsive.Max)
		settings := e.Settings()
		chain := layering.NewDeviceChain(Devices()...)
		for _, device := range chain.Lineage(control.Responsive.Max)[1:] {
			key := ResponsiveKey(base, device)
			inherited, ok := settings[key]
			trace.Layers = append(trace.Layers, Provenance{
				Source: SourceInherited,
				Key:    key,
				Value:  inherited,
				Found:  ok && !isEmpty(inherited),
			})
		}
	}
	return trace, nil
}

// Evaluate runs expr with the display settings bound as variables.
func (e *Entity) Evaluate(expr string) (any, error) {
	values := e.DisplaySettings()
	ctx := RuleContext{
		Values:   values,
		Metadata: map[string]any{"stack": e.stack.Name()},
		Entity:   e.id,
		Purpose:  PurposeQuery,
	}
	return evaluate(e.stack.cfg.evaluator, e.stack.cfg.evalLogger, ctx, expr)
}

func (e *Entity) resolver() resolver {
	return resolver{
		types:      e.stack.Types(),
		conditions: e.stack.cfg.conditions,
		tags:       e.stack.cfg.tags,
		logger:     e.stack.Logger(),
		entity:     e.id,
	}
}

// parsed returns the cached parsed settings, recomputing them when the stack
// changed. Callers hold e.mu.
func (e *Entity) parsed() map[string]any {
	version := e.stack.Version()
	if e.cache.parsed != nil && e.cache.version == version {
		return e.cache.parsed
	}
	e.cache = settingsCache{
		version: version,
		parsed:  e.resolver().parsedSettings(e.stack.Controls(), e.raw),
	}
	return e.cache.parsed
}

// dynamic returns the cached dynamic settings. Callers hold e.mu.
func (e *Entity) dynamic() map[string]any {
	parsed := e.parsed()
	if e.cache.display == nil {
		e.cache.display = e.resolver().parseDynamic(parsed, e.stack.Controls(), e.raw)
	}
	return e.cache.display
}

func (e *Entity) emit(ctx context.Context, event activity.Event) error {
	if err := e.stack.cfg.emitter.Emit(ctx, event); err != nil {
		e.stack.Logger().Warn("controls: activity hook failed",
			slog.String("entity", e.id),
			slog.String("verb", event.Verb),
			slog.Any("error", err),
		)
		return fmt.Errorf("controls: emit %s: %w", event.Verb, err)
	}
	return nil
}
