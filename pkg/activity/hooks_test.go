package activity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEventNormalize(t *testing.T) {
	meta := map[string]any{"keys": []string{"title"}}
	event := Event{
		Verb:       " controls.stack.built ",
		Actor:      Actor{ActorID: " actor ", TenantID: " tenant "},
		ObjectType: " controls.stack ",
		ObjectID:   " heading ",
		Stack:      " heading ",
		Channel:    " controls ",
		Metadata:   meta,
	}

	got := event.Normalize()
	if got.Verb != VerbStackBuilt || got.ObjectType != ObjectStack || got.ObjectID != "heading" || got.Stack != "heading" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.Actor.ActorID != "actor" || got.Actor.TenantID != "tenant" || got.Channel != "controls" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["keys"].([]string)[0] = "changed"
	if meta["keys"].([]string)[0] != "title" {
		t.Fatalf("expected original metadata untouched: %+v", meta)
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	if err := (Hooks{capture}).Notify(context.Background(), Event{Verb: VerbStackBuilt, ObjectType: ObjectStack}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutJoinsErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { panic("hook exploded") }),
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, StackBuilt("heading", 1, []string{"title"}))
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !strings.Contains(err.Error(), "hook panicked") {
		t.Fatalf("expected panic converted to error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestHooksNotifyIsolatesMetadata(t *testing.T) {
	mutate := HookFunc(func(_ context.Context, event Event) error {
		event.Metadata["version"] = "mutated"
		return nil
	})
	capture := &CaptureHook{}

	if err := (Hooks{mutate, capture}).Notify(context.Background(), StackBuilt("heading", 4, nil)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if capture.Events[0].Metadata["version"] != uint64(4) {
		t.Fatalf("expected metadata isolated per hook, got %v", capture.Events[0].Metadata)
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), StackBuilt("heading", 1, nil)); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	if NewEmitter(Hooks{nil}, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}

	var nilEmitter *Emitter
	if err := nilEmitter.Emit(context.Background(), StackBuilt("heading", 1, nil)); err != nil {
		t.Fatalf("nil emitter should be a no-op, got %v", err)
	}
}

func TestEmitterPreservesExplicitChannelAndTime(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "editor"})

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	event := StackBuilt("heading", 1, nil)
	event.Channel = "custom"
	event.OccurredAt = at
	if err := emitter.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}

	if err := emitter.Emit(context.Background(), StackBuilt("heading", 2, nil)); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[1].Channel != "editor" {
		t.Fatalf("expected configured channel, got %q", capture.Events[1].Channel)
	}
}
