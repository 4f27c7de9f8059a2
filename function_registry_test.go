package controls

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFunctionRegistryRegister(t *testing.T) {
	registry := NewFunctionRegistry()
	upper := func(args ...any) (any, error) { return strings.ToUpper(args[0].(string)), nil }

	if err := registry.Register("upper", upper); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		name string
		fn   Function
		want error
	}{
		{name: " ", fn: upper, want: ErrEmptyName},
		{name: "lower", fn: nil, want: ErrNilFunction},
		{name: "site-name", fn: upper, want: ErrInvalidFunctionName},
		{name: "settings", fn: upper, want: ErrInvalidFunctionName},
		{name: "Call", fn: upper, want: ErrInvalidFunctionName},
		{name: "UPPER", fn: upper, want: ErrFunctionExists},
	}
	for _, tc := range cases {
		err := registry.Register(tc.name, tc.fn)
		if !errors.Is(err, tc.want) {
			t.Fatalf("Register(%q) = %v, want %v", tc.name, err, tc.want)
		}
		var usage *UsageError
		if !errors.As(err, &usage) || usage.Op != "register_function" {
			t.Fatalf("expected register_function usage error, got %v", err)
		}
	}
}

func TestFunctionRegistryCallAndBindings(t *testing.T) {
	registry := NewFunctionRegistry()
	boom := errors.New("boom")
	_ = registry.Register("join", func(args ...any) (any, error) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			parts = append(parts, arg.(string))
		}
		return strings.Join(parts, "-"), nil
	})
	_ = registry.Register("fail", func(...any) (any, error) { return nil, boom })

	got, err := registry.Call("join", "a", "b")
	if err != nil || got != "a-b" {
		t.Fatalf("Call(join) = %v, %v", got, err)
	}
	if _, err := registry.Call("fail"); !errors.Is(err, boom) || !strings.Contains(err.Error(), `function "fail"`) {
		t.Fatalf("expected wrapped function error, got %v", err)
	}
	if _, err := registry.Call("missing"); !errors.Is(err, ErrFunctionNotFound) {
		t.Fatalf("expected ErrFunctionNotFound, got %v", err)
	}
	var nilRegistry *FunctionRegistry
	if _, err := nilRegistry.Call("join"); !errors.Is(err, ErrFunctionNotFound) {
		t.Fatalf("expected ErrFunctionNotFound from nil registry, got %v", err)
	}

	bindings := registry.Bindings()
	if diff := cmp.Diff([]string{"fail", "join"}, registry.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if got, err := bindings["join"]("x", "y", "z"); err != nil || got != "x-y-z" {
		t.Fatalf("binding join = %v, %v", got, err)
	}

	clone := registry.Clone()
	_ = clone.Register("extra", func(...any) (any, error) { return nil, nil })
	if len(registry.Names()) != 2 || len(clone.Names()) != 3 {
		t.Fatalf("clone should not share storage: %v %v", registry.Names(), clone.Names())
	}
}

func TestWithCustomFunctionSkipsInvalidNames(t *testing.T) {
	cfg := applyOptions([]Option{
		WithCustomFunction("site_name", func(...any) (any, error) { return "Acme", nil }),
		WithCustomFunction("now", func(...any) (any, error) { return nil, nil }),
	})
	if diff := cmp.Diff([]string{"site_name"}, cfg.functions.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if len(cfg.deferred) != 1 || !errors.Is(cfg.deferred[0], ErrInvalidFunctionName) {
		t.Fatalf("expected deferred option error, got %v", cfg.deferred)
	}
	got, err := cfg.evaluator.Evaluate(RuleContext{}, `site_name() + "!"`)
	if err != nil || got != "Acme!" {
		t.Fatalf("custom function through default evaluator = %v, %v", got, err)
	}
}
