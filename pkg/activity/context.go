package activity

import (
	"context"
	"strings"
)

// Actor identifies who triggered an activity.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

// IsZero reports whether no identifier is set.
func (a Actor) IsZero() bool {
	a = a.normalize()
	return a.ActorID == "" && a.UserID == "" && a.TenantID == ""
}

func (a Actor) normalize() Actor {
	return Actor{
		ActorID:  strings.TrimSpace(a.ActorID),
		UserID:   strings.TrimSpace(a.UserID),
		TenantID: strings.TrimSpace(a.TenantID),
	}
}

type actorKey struct{}

// WithActor returns a context carrying actor. Events emitted for calls made
// with the context are attributed to it.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor.normalize())
}

// ActorFromContext extracts the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
