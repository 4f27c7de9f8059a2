package controls

import (
	"context"
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Purpose  string
	Expr     string
	Entity   string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogEvaluatorLogger writes evaluation events to a structured logger. Failed
// evaluations log at warn, the rest at debug.
type SlogEvaluatorLogger struct {
	Logger *slog.Logger
}

// LogEvaluation implements EvaluatorLogger.
func (l SlogEvaluatorLogger) LogEvaluation(event EvaluatorLogEvent) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("engine", event.Engine),
		slog.String("purpose", event.Purpose),
		slog.String("expr", event.Expr),
		slog.String("entity", event.Entity),
		slog.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
		logger.LogAttrs(context.Background(), slog.LevelWarn, "expression evaluation failed", attrs...)
		return
	}
	logger.LogAttrs(context.Background(), slog.LevelDebug, "expression evaluated", attrs...)
}

// WithEvaluatorLogger attaches an evaluator logger to the stack.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}
