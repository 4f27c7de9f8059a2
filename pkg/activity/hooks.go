package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is one control lifecycle occurrence fanned out to hooks.
type Event struct {
	Verb       string
	Actor      Actor
	ObjectType string
	ObjectID   string
	// Stack is the entity type whose control stack the event concerns.
	Stack      string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Complete reports whether the event names a verb and an object.
func (e Event) Complete() bool {
	return strings.TrimSpace(e.Verb) != "" &&
		strings.TrimSpace(e.ObjectType) != "" &&
		strings.TrimSpace(e.ObjectID) != ""
}

// Normalize trims identifiers, copies metadata and stamps OccurredAt when
// it is unset.
func (e Event) Normalize() Event {
	normalized := e
	normalized.Verb = strings.TrimSpace(e.Verb)
	normalized.Actor = e.Actor.normalize()
	normalized.ObjectType = strings.TrimSpace(e.ObjectType)
	normalized.ObjectID = strings.TrimSpace(e.ObjectID)
	normalized.Stack = strings.TrimSpace(e.Stack)
	normalized.Channel = strings.TrimSpace(e.Channel)
	normalized.Metadata = cloneMetadata(e.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

// Hook receives normalized activity events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans events out to zero or more hooks.
type Hooks []Hook

// Compact returns the non-nil hooks, or nil when there are none.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// Notify normalizes event and hands it to every hook. Incomplete events are
// dropped. Hook failures, panics included, are joined into the returned
// error; the remaining hooks still run.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 || !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	normalized := event.Normalize()
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := notifyOne(ctx, hook, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func notifyOne(ctx context.Context, hook Hook, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activity: hook panicked on %s: %v", event.Verb, r)
		}
	}()
	// each hook gets its own metadata copy
	event.Metadata = cloneMetadata(event.Metadata)
	return hook.Notify(ctx, event)
}

func cloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		if keys, ok := value.([]string); ok {
			value = append([]string(nil), keys...)
		}
		dst[key] = value
	}
	return dst
}
