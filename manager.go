package controls

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/goliatone/go-controls/pkg/activity"
)

// EntityType declares the controls of one kind of element.
type EntityType interface {
	Name() string
	RegisterControls(stack *Stack) error
}

// EntityTypeFunc adapts a name and a registration function into an
// EntityType.
func EntityTypeFunc(name string, register func(stack *Stack) error) EntityType {
	return entityTypeFunc{name: name, register: register}
}

type entityTypeFunc struct {
	name     string
	register func(stack *Stack) error
}

func (t entityTypeFunc) Name() string { return t.name }

func (t entityTypeFunc) RegisterControls(stack *Stack) error {
	if t.register == nil {
		return nil
	}
	return t.register(stack)
}

// Manager builds stacks lazily and caches them by entity type name for the
// lifetime of the process.
type Manager struct {
	mu     sync.Mutex
	cfg    config
	stacks map[string]*Stack
}

// NewManager returns a manager whose stacks share opts. Unless opts set
// one, the stacks share a program cache of DefaultProgramCacheSize entries.
func NewManager(opts ...Option) *Manager {
	defaults := []Option{WithProgramCache(NewBoundedProgramCache(DefaultProgramCacheSize))}
	return &Manager{
		cfg:    applyOptions(append(defaults, opts...)),
		stacks: map[string]*Stack{},
	}
}

// Logger returns the configured logger.
func (m *Manager) Logger() *slog.Logger {
	return m.cfg.logger
}

// Stack returns the cached stack of entityType, building it on first use.
// A failed registration is not cached.
func (m *Manager) Stack(ctx context.Context, entityType EntityType) (*Stack, error) {
	if entityType == nil {
		return nil, usageError("stack", "", ErrEmptyName)
	}
	name := strings.TrimSpace(entityType.Name())
	if name == "" {
		return nil, usageError("stack", "", ErrEmptyName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if stack, ok := m.stacks[name]; ok {
		return stack, nil
	}

	stack := newStack(name, m.cfg)
	if err := entityType.RegisterControls(stack); err != nil {
		m.cfg.logger.Error("controls: register controls failed",
			slog.String("stack", name),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("controls: register %s: %w", name, err)
	}
	if !stack.State().Idle() {
		m.cfg.logger.Warn("controls: registration left builder context open",
			slog.String("stack", name),
		)
	}
	m.stacks[name] = stack
	m.cfg.logger.Debug("controls: stack built",
		slog.String("stack", name),
		slog.Int("controls", stack.Len()),
	)

	if err := m.cfg.emitter.Emit(ctx, activity.StackBuilt(name, stack.Version(), stack.Keys())); err != nil {
		m.cfg.logger.Warn("controls: activity hook failed",
			slog.String("stack", name),
			slog.String("verb", activity.VerbStackBuilt),
			slog.Any("error", err),
		)
	}
	return stack, nil
}

// Lookup returns a cached stack without building it.
func (m *Manager) Lookup(name string) (*Stack, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack, ok := m.stacks[name]
	return stack, ok
}

// Invalidate drops the cached stack of name so the next Stack call rebuilds
// it. It reports whether a stack was cached.
func (m *Manager) Invalidate(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.stacks[name]
	delete(m.stacks, name)
	if ok {
		m.cfg.logger.Debug("controls: stack invalidated", slog.String("stack", name))
	}
	return ok
}

// NewEntity binds data to the stack of entityType.
func (m *Manager) NewEntity(ctx context.Context, entityType EntityType, data Data) (*Entity, error) {
	stack, err := m.Stack(ctx, entityType)
	if err != nil {
		return nil, err
	}
	return NewEntity(stack, data), nil
}
