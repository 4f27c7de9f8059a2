// Package hydrate turns the loosely typed maps read from YAML or JSON
// control documents into typed structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Context identifies the document a payload was read from.
type Context struct {
	// Source is the file path or another label of the document origin.
	Source string
	// Entity is the entity type the document declares, when known.
	Entity string
}

// Stage names the decoding step that failed.
type Stage string

const (
	StagePayload Stage = "payload"
	StagePre     Stage = "pre-hook"
	StageDecode  Stage = "decode"
	StagePost    Stage = "post-hook"
)

// Error reports a failed decoding step of one document.
type Error struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("hydrate: %s %q: %v", e.Stage, e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrNilPayload is reported when there is nothing to decode.
var ErrNilPayload = errors.New("payload is nil")

// PreHook rewrites the payload before decoding. Returning nil keeps the
// payload it was given.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook validates or completes the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder decodes document payloads into T. Hooks run in registration
// order and work on a copy of the payload.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	strict    bool
}

// WithPreHook runs hook before decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.preHooks = append(d.preHooks, hook)
		}
	}
}

// WithPostHook runs hook after decoding.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithStrict rejects payload keys that T does not declare.
func WithStrict[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// NewDecoder builds a decoder from opts.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode runs the pre-hooks, decodes the result into T and runs the
// post-hooks. payload is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	fail := func(stage Stage, err error) (T, error) {
		return zero, &Error{Source: ctx.Source, Stage: stage, Err: err}
	}

	if payload == nil {
		return fail(StagePayload, ErrNilPayload)
	}
	current, err := roundTrip[map[string]any](payload, false)
	if err != nil {
		return fail(StagePayload, err)
	}

	for _, hook := range d.preHooks {
		next, err := hook(ctx, current)
		if err != nil {
			return fail(StagePre, err)
		}
		if next != nil {
			current = next
		}
	}

	result, err := roundTrip[T](current, d.strict)
	if err != nil {
		return fail(StageDecode, err)
	}

	for _, hook := range d.postHooks {
		if err := hook(ctx, &result); err != nil {
			return fail(StagePost, err)
		}
	}
	return result, nil
}

// roundTrip re-encodes value as JSON and decodes it into Out.
func roundTrip[Out any](value any, strict bool) (Out, error) {
	var out Out
	buffer, err := json.Marshal(value)
	if err != nil {
		return out, err
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if strict {
		decoder.DisallowUnknownFields()
	}
	err = decoder.Decode(&out)
	return out, err
}
