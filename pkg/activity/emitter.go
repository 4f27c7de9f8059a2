package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events that carry no channel.
const DefaultChannel = "controls"

// Config tunes an Emitter.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter stamps defaults on control events and forwards them to hooks.
type Emitter struct {
	hooks   Hooks
	channel string
}

// NewEmitter returns an emitter over hooks. It stays silent when cfg is
// disabled or no hook is left after dropping nils.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	emitter := &Emitter{channel: channel}
	if cfg.Enabled {
		emitter.hooks = hooks.Compact()
	}
	return emitter
}

// Enabled reports whether Emit reaches any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit fills the channel and, when the event has no actor, the actor stored
// in ctx, then notifies the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if event.Actor.IsZero() {
		if actor, ok := ActorFromContext(ctx); ok {
			event.Actor = actor
		}
	}
	return e.hooks.Notify(ctx, event)
}
