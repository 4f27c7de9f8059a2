//go:build js_eval

package controls

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJSEvaluatorBindsSettingsAndFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	_ = registry.Register("site_name", func(...any) (any, error) { return "Acme", nil })
	evaluator := NewJSEvaluator(JSWithProgramCache(NewMemoryProgramCache()), JSWithFunctionRegistry(registry))

	got, err := evaluator.Evaluate(RuleContext{Values: map[string]any{"size": 12}}, `size > 10 ? site_name() : "small"`)
	if err != nil || got != "Acme" {
		t.Fatalf("Evaluate = %v, %v", got, err)
	}
	rule, err := evaluator.Compile(`settings.size * 2`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got, err := rule.Evaluate(RuleContext{Values: map[string]any{"size": 4}}); err != nil || got != int64(8) {
		t.Fatalf("compiled rule = %v (%T), %v", got, got, err)
	}
}

func TestJSEvaluatorTimeout(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(50 * time.Millisecond))
	_, err := evaluator.Evaluate(RuleContext{}, `(function(){ for(;;){} })()`)
	if err == nil || !strings.Contains(err.Error(), "exceeded") {
		t.Fatalf("expected interrupt error, got %v", err)
	}
	if errors.Is(err, ErrJSEvaluatorUnavailable) {
		t.Fatalf("tagged build should run scripts")
	}
}
