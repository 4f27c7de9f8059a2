package controls

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// GroupControl expands into primitive AddControl calls on a stack.
type GroupControl interface {
	AddControls(stack *Stack, args Args, opts ...AddOption) error
}

// GroupFunc adapts a function into a GroupControl.
type GroupFunc func(stack *Stack, args Args, opts ...AddOption) error

// AddControls delegates to the underlying function.
func (fn GroupFunc) AddControls(stack *Stack, args Args, opts ...AddOption) error {
	return fn(stack, args, opts...)
}

// GroupRegistry resolves group controls by name.
type GroupRegistry interface {
	Lookup(name string) (GroupControl, bool)
}

// Groups is the in-memory GroupRegistry.
type Groups struct {
	mu     sync.RWMutex
	groups map[string]GroupControl
}

// NewGroupRegistry constructs an empty registry.
func NewGroupRegistry() *Groups {
	return &Groups{groups: map[string]GroupControl{}}
}

// Register stores group under name guarding against duplicates.
func (r *Groups) Register(name string, group GroupControl) error {
	if group == nil {
		return fmt.Errorf("controls: group %q is nil", name)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("controls: group name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groups == nil {
		r.groups = map[string]GroupControl{}
	}
	if _, exists := r.groups[name]; exists {
		return fmt.Errorf("controls: group %q already registered", name)
	}
	r.groups[name] = group
	return nil
}

// Lookup returns the group registered under name.
func (r *Groups) Lookup(name string) (GroupControl, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.groups[name]
	return group, ok
}

// Names returns registered group names sorted alphabetically.
func (r *Groups) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
