package controls

import (
	"errors"
	"time"
)

// ErrNoEvaluator is returned when no expression engine could be resolved.
var ErrNoEvaluator = errors.New("controls: evaluator not configured")

// RuleContext carries the inputs of an expression: the settings visible to it
// and optional arguments and metadata bound as "args" and "metadata".
type RuleContext struct {
	Values   map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	// Entity names the element the expression runs for and Purpose tells
	// conditions, tags and queries apart. Both show up in errors and log
	// events.
	Entity  string
	Purpose string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Values == nil {
		ctx.Values = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) entityLabel() string {
	if ctx.Entity != "" {
		return ctx.Entity
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context. Condition strings and
// dynamic tag segments both go through it.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// evaluatorEngineName labels log events and errors.
func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if isJSEvaluator(e) {
			return "js"
		}
		return "custom"
	}
}

// defaultEvaluator builds the expr-backed engine used when none is configured.
func defaultEvaluator(cache ProgramCache, registry *FunctionRegistry) Evaluator {
	var opts []ExprEvaluatorOption
	if cache != nil {
		opts = append(opts, ExprWithProgramCache(cache))
	}
	if registry != nil {
		opts = append(opts, ExprWithFunctionRegistry(registry))
	}
	return NewExprEvaluator(opts...)
}

// evaluate runs expr through evaluator and reports the attempt to logger.
func evaluate(evaluator Evaluator, logger EvaluatorLogger, ctx RuleContext, expr string) (any, error) {
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}
	ctx = ctx.withDefaults()
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expr)
	engine := evaluatorEngineName(evaluator)
	ctx.Entity = ctx.entityLabel()
	err = wrapEvaluationError(engine, expr, ctx, err)
	logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Purpose:  ctx.Purpose,
		Expr:     expr,
		Entity:   ctx.Entity,
		Duration: time.Since(start),
		Err:      err,
	})
	return value, err
}
