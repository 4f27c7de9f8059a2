// Package usersink forwards control activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-controls/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook records control events as go-users activity records.
type Hook struct {
	Sink usertypes.ActivitySink
	// Channel is used when the event carries none.
	Channel string
}

var _ activity.Hook = Hook{}

// Notify logs event to the sink. Incomplete events are skipped.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil || !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, Record(event.Normalize(), h.Channel))
}

// Record maps a normalized event to an ActivityRecord. The stack name
// travels in Data under "stack"; identifiers that are not UUIDs map to
// uuid.Nil and are kept in Data under "actor_ref", "user_ref" and
// "tenant_ref".
func Record(event activity.Event, fallbackChannel string) usertypes.ActivityRecord {
	channel := event.Channel
	if channel == "" {
		channel = strings.TrimSpace(fallbackChannel)
	}

	data := make(map[string]any, len(event.Metadata)+1)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.Stack != "" {
		data["stack"] = event.Stack
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseID(event.Actor.ActorID, "actor_ref", data),
		UserID:     parseID(event.Actor.UserID, "user_ref", data),
		TenantID:   parseID(event.Actor.TenantID, "tenant_ref", data),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    channel,
		OccurredAt: event.OccurredAt,
	}
	if len(data) > 0 {
		record.Data = data
	}
	return record
}

func parseID(value, ref string, data map[string]any) uuid.UUID {
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		data[ref] = value
		return uuid.Nil
	}
	return id
}
