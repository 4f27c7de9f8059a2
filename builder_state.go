package controls

import "github.com/goliatone/go-controls/layering"

// BuilderState is the declaration context of a stack: the open section, tabs
// group, popover and injection point. Transitions only check and mutate this
// value, so nesting rules can be exercised without a store.
type BuilderState struct {
	Section   *SectionContext
	Tabs      *TabsContext
	Popover   *PopoverContext
	Injection *InjectionPoint
}

// Clone returns a detached copy of the state.
func (s BuilderState) Clone() BuilderState {
	out := BuilderState{}
	if s.Section != nil {
		section := cloneSection(*s.Section)
		out.Section = &section
	}
	if s.Tabs != nil {
		tabs := cloneTabs(*s.Tabs)
		out.Tabs = &tabs
	}
	if s.Popover != nil {
		popover := *s.Popover
		out.Popover = &popover
	}
	if s.Injection != nil {
		point := cloneInjection(*s.Injection)
		out.Injection = &point
	}
	return out
}

// Idle reports whether no context is open.
func (s BuilderState) Idle() bool {
	return s.Section == nil && s.Tabs == nil && s.Popover == nil && s.Injection == nil
}

func (s *BuilderState) openSection(section SectionContext) error {
	if s.Section != nil {
		return ErrSectionOpen
	}
	captured := cloneSection(section)
	s.Section = &captured
	if s.Injection != nil {
		s.Injection.Section = cloneSection(section)
	}
	return nil
}

func (s *BuilderState) closeSection() error {
	if s.Section == nil {
		return ErrNoSection
	}
	s.Section = nil
	return nil
}

func (s *BuilderState) openTabs(tabs TabsContext) error {
	if s.Tabs != nil {
		return ErrTabsOpen
	}
	captured := cloneTabs(tabs)
	s.Tabs = &captured
	if s.Injection != nil {
		injected := cloneTabs(tabs)
		s.Injection.Tab = &injected
	}
	return nil
}

func (s *BuilderState) closeTabs() error {
	if s.Tabs == nil {
		return ErrNoTabs
	}
	s.Tabs = nil
	return nil
}

// canOpenTab validates a tab start before its control is registered.
func (s *BuilderState) canOpenTab() error {
	if s.Tabs == nil {
		return ErrNoTabs
	}
	if s.Tabs.InnerTab != "" {
		return ErrTabOpen
	}
	return nil
}

func (s *BuilderState) openTab(id string) error {
	if err := s.canOpenTab(); err != nil {
		return err
	}
	s.Tabs.InnerTab = id
	if s.Injection != nil {
		if s.Injection.Tab == nil {
			injected := cloneTabs(*s.Tabs)
			s.Injection.Tab = &injected
		}
		s.Injection.Tab.InnerTab = id
	}
	return nil
}

func (s *BuilderState) closeTab() error {
	if s.Tabs == nil || s.Tabs.InnerTab == "" {
		return ErrNoTab
	}
	s.Tabs.InnerTab = ""
	return nil
}

func (s *BuilderState) openPopover() error {
	if s.Popover != nil {
		return ErrPopoverOpen
	}
	s.Popover = &PopoverContext{}
	return nil
}

// canClosePopover requires an open popover holding at least one control.
func (s *BuilderState) canClosePopover() error {
	if s.Popover == nil {
		return ErrNoPopover
	}
	if !s.Popover.Initialized {
		return ErrEmptyPopover
	}
	return nil
}

func (s *BuilderState) closePopover() error {
	if err := s.canClosePopover(); err != nil {
		return err
	}
	s.Popover = nil
	return nil
}

// popoverStartPending reports whether the next control opens the popover.
func (s *BuilderState) popoverStartPending() bool {
	return s.Popover != nil && !s.Popover.Initialized
}

func (s *BuilderState) openInjection(point InjectionPoint) error {
	if s.Injection != nil {
		return ErrInjectionOpen
	}
	captured := cloneInjection(point)
	s.Injection = &captured
	return nil
}

func (s *BuilderState) closeInjection() error {
	if s.Injection == nil {
		return ErrNoInjection
	}
	s.Injection = nil
	return nil
}

// placement returns the section and tab context new controls inherit. An
// active injection point takes precedence over the live context; its tab only
// when it captured one.
func (s *BuilderState) placement() (*SectionContext, *TabsContext) {
	section, tabs := s.Section, s.Tabs
	if s.Injection != nil {
		injected := s.Injection.Section
		section = &injected
		if s.Injection.Tab != nil {
			tabs = s.Injection.Tab
		}
	}
	return section, tabs
}

// pointerIndex is where the next control lands.
func (s *BuilderState) pointerIndex(storeLen int) int {
	if s.Injection != nil {
		return s.Injection.Index
	}
	return storeLen
}

func cloneSection(section SectionContext) SectionContext {
	section.Condition = layering.CloneMap(section.Condition)
	return section
}

func cloneTabs(tabs TabsContext) TabsContext {
	tabs.Condition = layering.CloneMap(tabs.Condition)
	tabs.Conditions = layering.Clone(tabs.Conditions)
	return tabs
}

func cloneInjection(point InjectionPoint) InjectionPoint {
	point.Section = cloneSection(point.Section)
	if point.Tab != nil {
		tab := cloneTabs(*point.Tab)
		point.Tab = &tab
	}
	return point
}
