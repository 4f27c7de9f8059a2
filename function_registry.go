package controls

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Function is a host helper callable from condition and dynamic tag
// expressions, either by name or through call(name, args...).
type Function func(args ...any) (any, error)

var functionNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedFunctionNames are bound by every evaluator environment.
var reservedFunctionNames = map[string]struct{}{
	"call":     {},
	"now":      {},
	"args":     {},
	"metadata": {},
	"settings": {},
	"entity":   {},
}

// FunctionRegistry stores host functions by name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// Register stores fn under name. Names must be identifiers, must not shadow
// the evaluator bindings and must be unique ignoring case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return usageError("register_function", name, ErrEmptyName)
	case fn == nil:
		return usageError("register_function", name, ErrNilFunction)
	case !functionNamePattern.MatchString(name):
		return usageError("register_function", name, ErrInvalidFunctionName)
	}
	if _, reserved := reservedFunctionNames[strings.ToLower(name)]; reserved {
		return usageError("register_function", name, ErrInvalidFunctionName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	for existing := range r.functions {
		if strings.EqualFold(existing, name) {
			return usageError("register_function", name, ErrFunctionExists)
		}
	}
	r.functions[name] = fn
	return nil
}

// Clone returns a copy that can be extended without touching r.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{functions: make(map[string]Function, len(r.functions))}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	r.mu.RLock()
	fn := r.functions[name]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	result, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("controls: function %q: %w", name, err)
	}
	return result, nil
}

// Bindings returns one closure per registered function, keyed by name,
// ready to be installed in an evaluator environment.
func (r *FunctionRegistry) Bindings() map[string]func(...any) (any, error) {
	names := r.Names()
	if len(names) == 0 {
		return nil
	}
	bindings := make(map[string]func(...any) (any, error), len(names))
	for _, name := range names {
		bindings[name] = func(args ...any) (any, error) {
			return r.Call(name, args...)
		}
	}
	return bindings
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry exposes registry to condition and tag expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for condition and tag
// expressions. Invalid or duplicate names are logged and skipped.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.deferred = append(cfg.deferred, err)
		}
	}
}
