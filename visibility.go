package controls

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/goliatone/go-controls/conditions"
)

// ConditionsEngine checks the advanced "conditions" declaration of a control
// against settings values.
type ConditionsEngine interface {
	Check(conditions any, values map[string]any) (bool, error)
}

// ConditionsEngineFunc adapts a function into a ConditionsEngine.
type ConditionsEngineFunc func(conditions any, values map[string]any) (bool, error)

// Check delegates to the underlying function.
func (fn ConditionsEngineFunc) Check(conditions any, values map[string]any) (bool, error) {
	return fn(conditions, values)
}

type conditionsEngine struct {
	evaluator Evaluator
	logger    EvaluatorLogger
}

// NewConditionsEngine returns the default engine. String declarations are
// expressions run by evaluator and pass when the result is truthy; anything
// else is a rule tree checked by the conditions package.
func NewConditionsEngine(evaluator Evaluator, logger EvaluatorLogger) ConditionsEngine {
	return conditionsEngine{evaluator: evaluator, logger: logger}
}

func (e conditionsEngine) Check(declared any, values map[string]any) (bool, error) {
	if expression, ok := declared.(string); ok {
		if expression == "" {
			return true, nil
		}
		result, err := evaluate(e.evaluator, e.logger, RuleContext{Values: values, Purpose: PurposeCondition}, expression)
		if err != nil {
			return false, err
		}
		return truthy(result), nil
	}
	return conditions.Check(declared, values)
}

var conditionKeyPattern = regexp.MustCompile(`(?i)([a-z_\-0-9]+)(?:\[([a-z_]+)])?(!?)$`)

// conditionKey is a parsed key of a simple "condition" map: the setting
// name, an optional sub-key and the negation suffix.
type conditionKey struct {
	name     string
	sub      string
	negative bool
}

func parseConditionKey(key string) (conditionKey, bool) {
	matches := conditionKeyPattern.FindStringSubmatch(key)
	if matches == nil {
		return conditionKey{}, false
	}
	return conditionKey{name: matches[1], sub: matches[2], negative: matches[3] == "!"}, true
}

// IsVisible reports whether control is displayed for values. A non-empty
// "conditions" declaration is decided by engine alone; otherwise every entry
// of the simple "condition" map must hold. An engine error hides the control
// and is returned to the caller.
func IsVisible(control Control, values map[string]any, engine ConditionsEngine) (bool, error) {
	if control.Conditions != nil && !isEmpty(control.Conditions) {
		if engine == nil {
			return false, fmt.Errorf("controls: control %q declares conditions but no engine is configured", control.Name)
		}
		ok, err := engine.Check(control.Conditions, values)
		if err != nil {
			return false, fmt.Errorf("controls: check conditions of %q: %w", control.Name, err)
		}
		return ok, nil
	}
	return MatchCondition(control.Condition, values), nil
}

// MatchCondition evaluates a simple condition map. A key may carry a sub-key
// ("size[unit]") and a trailing "!" to negate the entry. A missing or nil
// value fails the entry regardless of negation.
func MatchCondition(condition map[string]any, values map[string]any) bool {
	for rawKey, expected := range condition {
		key, ok := parseConditionKey(rawKey)
		if !ok {
			return false
		}
		actual, ok := values[key.name]
		if !ok || actual == nil {
			return false
		}
		if key.sub != "" {
			actual, ok = subValue(actual, key.sub)
			if !ok {
				return false
			}
		}
		if containsValue(expected, actual) == key.negative {
			return false
		}
	}
	return true
}

// containsValue compares a condition entry with the instance value. A non-empty
// list of expected values matches when it holds actual; a non-empty list value
// matches when it holds expected; otherwise the values must be strictly equal.
func containsValue(expected, actual any) bool {
	if isList(expected) && !isEmpty(expected) {
		return listContains(expected, actual)
	}
	if isList(actual) && !isEmpty(actual) {
		return listContains(actual, expected)
	}
	return strictEqual(actual, expected)
}

func subValue(value any, key string) (any, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	item := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !item.IsValid() {
		return nil, false
	}
	out := item.Interface()
	if out == nil {
		return nil, false
	}
	return out, true
}

func isList(value any) bool {
	if value == nil {
		return false
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func listContains(list, needle any) bool {
	rv := reflect.ValueOf(list)
	for i := 0; i < rv.Len(); i++ {
		if strictEqual(rv.Index(i).Interface(), needle) {
			return true
		}
	}
	return false
}

// strictEqual compares without type juggling between strings and numbers.
// Numbers of different Go kinds compare by value so decoded documents
// (float64) match Go literals (int).
func strictEqual(a, b any) bool {
	if af, ok := numberValue(a); ok {
		bf, ok := numberValue(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func numberValue(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// isEmpty reports nil, empty strings, false, zero numbers and empty
// collections.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	if n, ok := numberValue(value); ok {
		return n == 0
	}
	return false
}
