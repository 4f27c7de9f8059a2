// Package conditions checks rule trees of the form
//
//	{relation: "or", terms: [{name: "layout", operator: "in", value: ["a", "b"]}, ...]}
//
// against a settings snapshot. Terms may nest further groups through their own
// "terms" list.
package conditions

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Relations joining the terms of a group.
const (
	RelationAnd = "and"
	RelationOr  = "or"
)

// ErrUnknownOperator is returned for operators outside the supported set.
var ErrUnknownOperator = errors.New("conditions: unknown operator")

// Group is a list of terms joined by a relation ("and" when empty).
type Group struct {
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty"`
	Terms    []Term `json:"terms" yaml:"terms"`
}

// Term compares the setting Name (optionally "name[sub]") with Value. A term
// with nested Terms is a group of its own.
type Term struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty"`
	Terms    []Term `json:"terms,omitempty" yaml:"terms,omitempty"`
}

// Check parses raw and evaluates it against values.
func Check(raw any, values map[string]any) (bool, error) {
	group, err := Parse(raw)
	if err != nil {
		return false, err
	}
	return group.Check(values)
}

// Parse accepts a Group, a *Group or a decoded map document.
func Parse(raw any) (Group, error) {
	switch typed := raw.(type) {
	case nil:
		return Group{}, nil
	case Group:
		return typed, nil
	case *Group:
		if typed == nil {
			return Group{}, nil
		}
		return *typed, nil
	case map[string]any:
		term, err := parseTerm(typed)
		if err != nil {
			return Group{}, err
		}
		return Group{Relation: term.Relation, Terms: term.Terms}, nil
	default:
		return Group{}, fmt.Errorf("conditions: unsupported declaration %T", raw)
	}
}

func parseTerm(m map[string]any) (Term, error) {
	term := Term{Value: m["value"]}
	var ok bool
	if raw, exists := m["name"]; exists {
		if term.Name, ok = raw.(string); !ok {
			return Term{}, fmt.Errorf("conditions: name must be a string, got %T", raw)
		}
	}
	if raw, exists := m["operator"]; exists {
		if term.Operator, ok = raw.(string); !ok {
			return Term{}, fmt.Errorf("conditions: operator must be a string, got %T", raw)
		}
	}
	if raw, exists := m["relation"]; exists {
		if term.Relation, ok = raw.(string); !ok {
			return Term{}, fmt.Errorf("conditions: relation must be a string, got %T", raw)
		}
	}
	rawTerms, exists := m["terms"]
	if !exists {
		return term, nil
	}
	switch items := rawTerms.(type) {
	case []Term:
		term.Terms = append([]Term(nil), items...)
	case []map[string]any:
		for _, item := range items {
			child, err := parseTerm(item)
			if err != nil {
				return Term{}, err
			}
			term.Terms = append(term.Terms, child)
		}
	case []any:
		for i, item := range items {
			childMap, ok := item.(map[string]any)
			if !ok {
				return Term{}, fmt.Errorf("conditions: terms[%d] must be a map, got %T", i, item)
			}
			child, err := parseTerm(childMap)
			if err != nil {
				return Term{}, err
			}
			term.Terms = append(term.Terms, child)
		}
	default:
		return Term{}, fmt.Errorf("conditions: terms must be a list, got %T", rawTerms)
	}
	if term.Terms == nil {
		term.Terms = []Term{}
	}
	return term, nil
}

// Check evaluates the group. "or" passes on the first passing term, "and"
// fails on the first failing one; an empty "and" group passes.
func (g Group) Check(values map[string]any) (bool, error) {
	or := strings.EqualFold(g.Relation, RelationOr)
	for _, term := range g.Terms {
		ok, err := term.check(values)
		if err != nil {
			return false, err
		}
		if or && ok {
			return true, nil
		}
		if !or && !ok {
			return false, nil
		}
	}
	return !or, nil
}

func (t Term) check(values map[string]any) (bool, error) {
	if t.Terms != nil {
		return Group{Relation: t.Relation, Terms: t.Terms}.Check(values)
	}
	name, sub := splitName(t.Name)
	value := values[name]
	if sub != "" {
		value = index(value, sub)
	}
	return Compare(value, t.Value, t.Operator)
}

var namePattern = regexp.MustCompile(`^([\w-]+)(?:\[([\w-]+)])?$`)

func splitName(name string) (string, string) {
	matches := namePattern.FindStringSubmatch(name)
	if matches == nil {
		return name, ""
	}
	return matches[1], matches[2]
}

func index(value any, key string) any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	item := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !item.IsValid() {
		return nil
	}
	return item.Interface()
}

// Compare applies operator to the setting value (left) and the term value
// (right). An empty operator means loose equality.
func Compare(left, right any, operator string) (bool, error) {
	switch operator {
	case "", "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case "===":
		return strictEqual(left, right), nil
	case "!==":
		return !strictEqual(left, right), nil
	case "in":
		return inList(left, right), nil
	case "!in":
		return !inList(left, right), nil
	case "contains":
		return contains(left, right), nil
	case "!contains":
		return !contains(left, right), nil
	case "<", "<=", ">", ">=":
		return order(left, right, operator), nil
	default:
		return false, fmt.Errorf("%w %q", ErrUnknownOperator, operator)
	}
}

func inList(needle, list any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if looseEqual(rv.Index(i).Interface(), needle) {
			return true
		}
	}
	return false
}

// contains checks list membership for lists and substrings for strings.
func contains(haystack, needle any) bool {
	if s, ok := haystack.(string); ok {
		n, ok := needle.(string)
		return ok && strings.Contains(s, n)
	}
	return inList(needle, haystack)
}

func order(left, right any, operator string) bool {
	lf, lok := toNumber(left)
	rf, rok := toNumber(right)
	if lok && rok {
		switch operator {
		case "<":
			return lf < rf
		case "<=":
			return lf <= rf
		case ">":
			return lf > rf
		default:
			return lf >= rf
		}
	}
	ls, rs := fmt.Sprint(left), fmt.Sprint(right)
	switch operator {
	case "<":
		return ls < rs
	case "<=":
		return ls <= rs
	case ">":
		return ls > rs
	default:
		return ls >= rs
	}
}

// looseEqual treats numeric strings and numbers as comparable and nil as the
// empty string.
func looseEqual(a, b any) bool {
	if strictEqual(a, b) {
		return true
	}
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if aok && bok {
		return af == bf
	}
	if a == nil || b == nil {
		return isBlank(a) && isBlank(b)
	}
	if isScalar(a) && isScalar(b) {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	return false
}

func strictEqual(a, b any) bool {
	if af, ok := number(a); ok {
		bf, ok := number(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func isScalar(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func number(value any) (float64, bool) {
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

func toNumber(value any) (float64, bool) {
	if f, ok := number(value); ok {
		return f, true
	}
	s, ok := value.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}
