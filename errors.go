package controls

import (
	"errors"
	"fmt"
)

// Usage errors. They report misuse of the builder API and abort the current
// registration pass; entries written before the failure stay in the stack.
var (
	ErrEmptyName          = errors.New("controls: control name must not be empty")
	ErrControlExists      = errors.New("controls: control already registered")
	ErrUnknownControlType = errors.New("controls: control type not registered")
	ErrUnknownGroup       = errors.New("controls: group control not registered")
	ErrSectionOpen        = errors.New("controls: section already open")
	ErrNoSection          = errors.New("controls: no open section")
	ErrOutsideSection     = errors.New("controls: cannot add a control outside of a section")
	ErrAmbiguousPlacement = errors.New("controls: cannot redeclare section or tab inside an open section")
	ErrTabsOpen           = errors.New("controls: tabs group already open")
	ErrNoTabs             = errors.New("controls: no open tabs group")
	ErrTabOpen            = errors.New("controls: tab already open")
	ErrNoTab              = errors.New("controls: no open tab")
	ErrPopoverOpen        = errors.New("controls: popover already open")
	ErrNoPopover          = errors.New("controls: no open popover")
	ErrEmptyPopover       = errors.New("controls: popover has no controls")
	ErrInjectionOpen      = errors.New("controls: injection already open")
	ErrNoInjection        = errors.New("controls: no open injection")
	ErrInvalidPosition    = errors.New("controls: invalid position, use before/after for control or start/end for section")
)

// Function registry errors.
var (
	ErrNilFunction         = errors.New("controls: function is nil")
	ErrInvalidFunctionName = errors.New("controls: function name must be an identifier that does not shadow evaluator bindings")
	ErrFunctionExists      = errors.New("controls: function already registered")
	ErrFunctionNotFound    = errors.New("controls: function not registered")
)

// Resolution-time soft failures.
var (
	ErrControlNotFound  = errors.New("controls: control not found")
	ErrPositionNotFound = errors.New("controls: position target not found")
)

// UsageError carries the builder operation and control key that failed.
type UsageError struct {
	Op  string
	Key string
	Err error
}

func (e *UsageError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *UsageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func usageError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var existing *UsageError
	if errors.As(err, &existing) {
		return err
	}
	return &UsageError{Op: op, Key: key, Err: err}
}
