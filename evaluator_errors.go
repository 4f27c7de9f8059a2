package controls

import (
	"errors"
	"fmt"
	"strings"
)

// Expression purposes carried by RuleContext, errors and log events.
const (
	PurposeCondition = "condition"
	PurposeTag       = "tag"
	PurposeQuery     = "query"
)

// EvaluationError reports a failed condition, tag or query expression.
type EvaluationError struct {
	Engine  string
	Purpose string
	Expr    string
	Entity  string
	Err     error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	purpose := e.Purpose
	if purpose == "" {
		purpose = "evaluator"
	}
	expr := "<empty>"
	if e.Expr != "" {
		expr = fmt.Sprintf("%q", e.Expr)
	}
	return fmt.Sprintf("controls: %s %s expr=%s entity=%s: %v", e.Engine, purpose, expr, e.Entity, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapEvaluatorError labels engine failures that are not tied to one
// evaluation. Errors already carrying the package prefix pass through.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "controls:") {
		return err
	}
	return fmt.Errorf("controls: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches the engine, expression and rule context to
// err. An EvaluationError already in the chain only gets its empty fields
// filled.
func wrapEvaluationError(engine, expr string, ctx RuleContext, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Purpose: ctx.Purpose, Expr: expr, Entity: ctx.Entity, Err: err}
	}
	if evalErr.Engine == "" {
		evalErr.Engine = engine
	}
	if evalErr.Purpose == "" {
		evalErr.Purpose = ctx.Purpose
	}
	if evalErr.Expr == "" {
		evalErr.Expr = expr
	}
	if evalErr.Entity == "" {
		evalErr.Entity = ctx.Entity
	}
	return evalErr
}
