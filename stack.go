package controls

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/goliatone/go-controls/layering"
)

// Stack is the ordered control declaration of one entity type together with
// the builder state used while declaring it. Builder calls are expected from a
// single goroutine; readers may run concurrently once registration finished.
type Stack struct {
	mu    sync.RWMutex
	name  string
	store *Store
	state BuilderState
	cfg   config
}

// NewStack returns an empty stack for the entity type name.
func NewStack(name string, opts ...Option) *Stack {
	return newStack(name, applyOptions(opts))
}

func newStack(name string, cfg config) *Stack {
	return &Stack{
		name:  name,
		store: NewStore(),
		cfg:   cfg,
	}
}

// Name returns the entity type name.
func (s *Stack) Name() string {
	return s.name
}

// Logger returns the configured logger.
func (s *Stack) Logger() *slog.Logger {
	return s.cfg.logger
}

// Types returns the control type registry of the stack.
func (s *Stack) Types() *TypeRegistry {
	return s.cfg.types
}

// State returns a copy of the builder state.
func (s *Stack) State() BuilderState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Get returns a copy of the control stored under key.
func (s *Stack) Get(key string) (Control, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Get(key)
}

// Has reports whether key is registered.
func (s *Stack) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Has(key)
}

// At returns the control at position i.
func (s *Stack) At(i int) (Control, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.At(i)
}

// IndexOf returns the position of key, or -1.
func (s *Stack) IndexOf(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.IndexOf(key)
}

// Len returns the number of stored controls.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Len()
}

// Keys returns control keys in declaration order.
func (s *Stack) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Keys()
}

// Controls returns copies of all controls in declaration order.
func (s *Stack) Controls() []Control {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Controls()
}

// Version changes whenever the stored controls change.
func (s *Stack) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Version()
}

// PointerIndex is the store index the next control would be inserted at.
func (s *Stack) PointerIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.pointerIndex(s.store.Len())
}

// SectionArgs returns the context a section hands to the controls inside it.
func (s *Stack) SectionArgs(id string) (SectionContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sectionArgs(id)
}

func (s *Stack) sectionArgs(id string) (SectionContext, error) {
	control, ok := s.store.Get(id)
	if !ok {
		return SectionContext{}, ErrControlNotFound
	}
	return SectionContext{
		Section:   id,
		Tab:       control.Tab,
		Condition: layering.CloneMap(control.Condition),
	}, nil
}

// SectionControls returns the controls stored after section id up to the next
// section.
func (s *Stack) SectionControls(id string) []Control {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sectionControls(id)
}

func (s *Stack) sectionControls(id string) []Control {
	start := s.store.IndexOf(id)
	if start < 0 {
		return nil
	}
	var out []Control
	for i := start + 1; i < s.store.Len(); i++ {
		if s.store.typeAt(i) == TypeSection {
			break
		}
		control, _ := s.store.At(i)
		out = append(out, control)
	}
	return out
}

// AddControl registers a control under id. Inside an open section the
// control inherits the section and tab context; outside one it must name its
// section explicitly.
func (s *Stack) AddControl(id string, args Args, opts ...AddOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addControl(id, args, applyAddOptions(opts))
}

func (s *Stack) addControl(id string, args Args, opts addOptions) error {
	if id == "" {
		return usageError("add_control", id, ErrEmptyName)
	}
	if opts.position != nil {
		if err := s.startInjection(*opts.position); err != nil {
			return err
		}
		defer func() { _ = s.state.closeInjection() }()
	}

	index := opts.index
	if s.state.Injection != nil {
		index = s.state.Injection.Index
	}

	args = Args(layering.CloneMap(map[string]any(args)))
	if args == nil {
		args = Args{}
	}
	controlType, _ := args[keyType].(string)
	if controlType != TypeSection && controlType != TypeWPWidget {
		placed, err := s.place(id, args, opts.overwrite)
		if err != nil {
			return usageError("add_control", id, err)
		}
		args = placed
	}

	startsPopover := s.state.popoverStartPending()
	if startsPopover {
		args[keyPopover] = map[string]any{"start": true}
	}

	before := s.store.Len()
	if err := s.write(id, args, opts.overwrite, index); err != nil {
		return err
	}
	if startsPopover {
		s.state.Popover.Initialized = true
	}
	if s.state.Injection != nil && s.store.Len() > before {
		s.state.Injection.Index++
	}
	return nil
}

// place merges the open section and tab context beneath args. Controls that
// name their own tabs wrapper, such as tabs opened by StartTab, take the
// section context only.
func (s *Stack) place(id string, args Args, overwrite bool) (Args, error) {
	section, tabs := s.state.placement()
	if wrapper, _ := args[keyTabsWrapper].(string); wrapper != "" {
		tabs = nil
	}
	if section == nil {
		if explicit, _ := args[keySection].(string); explicit != "" {
			return args, nil
		}
		if overwrite && s.store.Has(id) {
			return args, nil
		}
		return nil, ErrOutsideSection
	}
	if !isEmpty(args[keySection]) || !isEmpty(args[keyTab]) {
		return nil, ErrAmbiguousPlacement
	}

	inherited := map[string]any{keySection: section.Section}
	if section.Tab != "" {
		inherited[keyTab] = section.Tab
	}
	if len(section.Condition) > 0 {
		inherited[keyCondition] = layering.CloneMap(section.Condition)
	}
	if tabs != nil {
		inherited[keyTabsWrapper] = tabs.TabsWrapper
		if tabs.InnerTab != "" {
			inherited[keyInnerTab] = tabs.InnerTab
		}
		if len(tabs.Condition) > 0 {
			existing, _ := inherited[keyCondition].(map[string]any)
			inherited[keyCondition] = layering.MergeMaps(tabs.Condition, existing)
		}
		if tabs.Conditions != nil {
			inherited[keyConditions] = layering.Clone(tabs.Conditions)
		}
	}
	return Args(layering.MergeMaps(args, inherited)), nil
}

// write resolves args into a Control and stores it. With overwrite an
// existing key is updated in place instead.
func (s *Stack) write(id string, args Args, overwrite bool, index int) error {
	if overwrite && s.store.Has(id) {
		return s.updateControl(id, args, updateOptions{})
	}
	control, err := s.resolve(id, args, true)
	if err != nil {
		return usageError("add_control", id, err)
	}
	if err := s.store.Add(control, index); err != nil {
		return usageError("add_control", id, err)
	}
	return nil
}

// resolve applies type defaults: the control type default settings are
// merged beneath args, data types contribute a default value and nested
// repeater fields are resolved the same way.
func (s *Stack) resolve(id string, args Args, topLevel bool) (Control, error) {
	args = Args(layering.CloneMap(map[string]any(args)))
	if args == nil {
		args = Args{}
	}
	typeName, _ := args[keyType].(string)
	if typeName == "" {
		typeName = TypeText
	}
	controlType, ok := s.cfg.types.Lookup(typeName)
	if !ok {
		return Control{}, ErrUnknownControlType
	}
	args[keyType] = typeName
	if topLevel && isEmpty(args[keyTab]) {
		args[keyTab] = TabContent
	}

	if controlType.IsDataControl() {
		typeDefault := controlType.DefaultValue()
		declared, hasDeclared := args[keyDefault]
		typeMap, typeIsMap := typeDefault.(map[string]any)
		declaredMap, declaredIsMap := declared.(map[string]any)
		switch {
		case typeIsMap && declaredIsMap:
			args[keyDefault] = layering.Overlay(declaredMap, typeMap)
		case !hasDeclared || declared == nil:
			args[keyDefault] = typeDefault
		}
	}

	merged := Args(layering.MergeMaps(args, controlType.DefaultSettings()))
	control, err := ControlFromArgs(id, merged)
	if err != nil {
		return Control{}, err
	}
	for i, field := range control.Fields {
		resolved, err := s.resolve(field.Name, field.Args(), false)
		if err != nil {
			return Control{}, err
		}
		control.Fields[i] = resolved
	}
	return control, nil
}

// UpdateControl patches an existing control. A shallow merge replaces
// top-level keys; Recursive(true) deep merges nested maps. A patch touching the
// tab or condition of a section is carried to the controls inside it unless
// Recursive(false) is passed explicitly.
func (s *Stack) UpdateControl(id string, patch Args, opts ...UpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateControl(id, patch, applyUpdateOptions(opts))
}

func (s *Stack) updateControl(id string, patch Args, opts updateOptions) error {
	current, ok := s.store.Get(id)
	if !ok {
		return usageError("update_control", id, ErrControlNotFound)
	}
	base := map[string]any(current.Args())
	var merged map[string]any
	if opts.recursive {
		merged = layering.MergeMaps(patch, base)
	} else {
		merged = layering.Overlay(patch, base)
	}
	control, err := ControlFromArgs(id, merged)
	if err != nil {
		return usageError("update_control", id, err)
	}
	if control.Type == "" {
		control.Type = current.Type
	}
	if err := s.store.Set(control); err != nil {
		return usageError("update_control", id, err)
	}

	if !control.IsSection() || !opts.propagates() {
		return nil
	}
	_, tabChanged := patch[keyTab]
	_, conditionChanged := patch[keyCondition]
	if !tabChanged && !conditionChanged {
		return nil
	}
	sectionArgs, err := s.sectionArgs(id)
	if err != nil {
		return usageError("update_control", id, err)
	}
	for _, child := range s.sectionControls(id) {
		childPatch := Args{}
		if tabChanged {
			childPatch[keyTab] = sectionArgs.Tab
		}
		if conditionChanged {
			childPatch[keyCondition] = replaceInherited(child.Condition, current.Condition, sectionArgs.Condition)
		}
		if err := s.updateControl(child.Name, childPatch, updateOptions{recursiveSet: true}); err != nil {
			return err
		}
	}
	return nil
}

// replaceInherited swaps the entries a child took from its section's previous
// condition for the section's current ones. Entries the child declared itself
// or got from a tabs group are kept.
func replaceInherited(child, previous, next map[string]any) map[string]any {
	out := layering.CloneMap(child)
	if out == nil {
		out = map[string]any{}
	}
	for key := range previous {
		delete(out, key)
	}
	for key, value := range next {
		out[key] = layering.Clone(value)
	}
	return out
}

// RemoveControl deletes id from the stack.
func (s *Stack) RemoveControl(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeControl(id)
}

func (s *Stack) removeControl(id string) error {
	if err := s.store.Remove(id); err != nil {
		return usageError("remove_control", id, err)
	}
	return nil
}

// StartSection opens a section. Controls added until EndSection inherit its
// id, tab and condition.
func (s *Stack) StartSection(id string, args Args) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Section != nil {
		return usageError("start_section", id, ErrSectionOpen)
	}
	args = withType(args, TypeSection)
	if err := s.addControl(id, args, addOptions{index: -1}); err != nil {
		return err
	}
	section, err := s.sectionArgs(id)
	if err != nil {
		return usageError("start_section", id, err)
	}
	return usageError("start_section", id, s.state.openSection(section))
}

// EndSection closes the open section.
func (s *Stack) EndSection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return usageError("end_section", "", s.state.closeSection())
}

// StartTabs opens a tabs group inside the current section.
func (s *Stack) StartTabs(id string, args Args) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Tabs != nil {
		return usageError("start_tabs", id, ErrTabsOpen)
	}
	tabs := TabsContext{TabsWrapper: id}
	if condition, ok := args[keyCondition]; ok {
		m, err := asMap(keyCondition, condition)
		if err != nil {
			return usageError("start_tabs", id, err)
		}
		tabs.Condition = m
	}
	if declared, ok := args[keyConditions]; ok {
		tabs.Conditions = layering.Clone(declared)
	}
	if err := s.addControl(id, withType(args, TypeTabs), addOptions{index: -1}); err != nil {
		return err
	}
	return usageError("start_tabs", id, s.state.openTabs(tabs))
}

// EndTabs closes the open tabs group.
func (s *Stack) EndTabs() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return usageError("end_tabs", "", s.state.closeTabs())
}

// StartTab opens a tab inside the open tabs group.
func (s *Stack) StartTab(id string, args Args) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.canOpenTab(); err != nil {
		return usageError("start_tab", id, err)
	}
	args = withType(args, TypeTab)
	args[keyTabsWrapper] = s.state.Tabs.TabsWrapper
	if err := s.addControl(id, args, addOptions{index: -1}); err != nil {
		return err
	}
	return usageError("start_tab", id, s.state.openTab(id))
}

// EndTab closes the open tab.
func (s *Stack) EndTab() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return usageError("end_tab", "", s.state.closeTab())
}

// StartPopover opens a popover run. The next control added is marked as its
// start.
func (s *Stack) StartPopover() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return usageError("start_popover", "", s.state.openPopover())
}

// EndPopover marks the last added control as the end of the popover run.
func (s *Stack) EndPopover() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.canClosePopover(); err != nil {
		return usageError("end_popover", "", err)
	}
	last, ok := s.store.At(s.state.pointerIndex(s.store.Len()) - 1)
	if !ok {
		return usageError("end_popover", "", ErrEmptyPopover)
	}
	patch := Args{keyPopover: map[string]any{"end": true}}
	if err := s.updateControl(last.Name, patch, updateOptions{recursive: true, recursiveSet: true}); err != nil {
		return err
	}
	return usageError("end_popover", "", s.state.closePopover())
}

// AddGroupControl expands the group control registered under name. AtPosition
// wraps the whole expansion in one injection so the group keeps its order;
// AtIndex is rejected because it cannot place more than one control.
func (s *Stack) AddGroupControl(name string, args Args, opts ...AddOption) error {
	group, ok := s.cfg.groups.Lookup(name)
	if !ok {
		return usageError("add_group_control", name, ErrUnknownGroup)
	}
	o := applyAddOptions(opts)
	if o.index >= 0 {
		return usageError("add_group_control", name, ErrInvalidPosition)
	}
	if o.position != nil {
		if err := s.StartInjection(*o.position); err != nil {
			return err
		}
		defer func() { _ = s.EndInjection() }()
	}
	var forward []AddOption
	if o.overwrite {
		forward = append(forward, Overwrite())
	}
	return group.AddControls(s, args, forward...)
}

func withType(args Args, controlType string) Args {
	out := Args(layering.CloneMap(map[string]any(args)))
	if out == nil {
		out = Args{}
	}
	out[keyType] = controlType
	return out
}

// IsUsageError reports whether err reports builder misuse.
func IsUsageError(err error) bool {
	var usage *UsageError
	return errors.As(err, &usage)
}
