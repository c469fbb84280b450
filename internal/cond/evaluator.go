// Package cond interprets JSON logic expressions against a subject.
//
// The format is a single-operator object: {"<op>": [...]} with op one
// of and, or, not, =, !=, in, contains_all, contains_any. Non-logical
// operators take exactly two operands: a property descriptor and the
// test value(s). Property descriptors are {"source": "id"} or
// {"source": {"ns": "...", "id": "..."}}.
//
// Unlike the query parser, evaluation is strict and fails fast: any
// malformed operator descriptor returns a descriptive error
// immediately. Expressions here are short and externally validated,
// so error accumulation buys nothing.
package cond

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Subject is the single capability the evaluator requires from its
// host: resolving the current value of a property.
type Subject interface {
	GetPropertyValue(id, ns string) any
}

// SubjectFunc adapts a plain function to the Subject interface.
type SubjectFunc func(id, ns string) any

func (f SubjectFunc) GetPropertyValue(id, ns string) any {
	return f(id, ns)
}

// Properties is a map-backed Subject. Namespaced lookups try the
// qualified "ns:id" key first, then fall back to the bare id.
type Properties map[string]any

func (p Properties) GetPropertyValue(id, ns string) any {
	if ns != "" {
		if v, ok := p[ns+":"+id]; ok {
			return v
		}
	}
	return p[id]
}

// EvalError is a malformed-expression failure. The expression shape
// is wrong; the subject's values never produce an EvalError.
type EvalError struct {
	Op      string
	Message string
}

func (e *EvalError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("conditional %q: %s", e.Op, e.Message)
	}
	return "conditional: " + e.Message
}

func errf(op, format string, args ...any) *EvalError {
	return &EvalError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// Evaluate tests a subject against a JSON logic expression.
func Evaluate(expr map[string]any, subject Subject) (bool, error) {
	if len(expr) != 1 {
		return false, errf("", "expected exactly one operator key, got %d", len(expr))
	}

	for op, operand := range expr {
		switch op {
		case "and":
			return evalJunction(op, operand, subject, true)
		case "or":
			return evalJunction(op, operand, subject, false)
		case "not":
			return evalNot(operand, subject)
		case "=", "!=", "in", "contains_all", "contains_any":
			return evalTest(op, operand, subject)
		default:
			return false, errf(op, "unknown operator")
		}
	}
	return false, nil // unreachable
}

// EvaluateBytes decodes a JSON expression document and evaluates it.
func EvaluateBytes(data []byte, subject Subject) (bool, error) {
	var expr map[string]any
	if err := json.Unmarshal(data, &expr); err != nil {
		return false, errf("", "decode expression: %v", err)
	}
	return Evaluate(expr, subject)
}

// evalJunction reduces a list of sub-expressions. Conjunction when
// all is true (vacuously true for an empty list), disjunction
// otherwise (vacuously false).
func evalJunction(op string, operand any, subject Subject, all bool) (bool, error) {
	list, ok := operand.([]any)
	if !ok {
		return false, errf(op, "operand must be an array, got %T", operand)
	}

	result := all
	for i, entry := range list {
		sub, ok := entry.(map[string]any)
		if !ok {
			return false, errf(op, "operand %d must be an expression object, got %T", i, entry)
		}
		v, err := Evaluate(sub, subject)
		if err != nil {
			return false, err
		}
		if all {
			result = result && v
		} else {
			result = result || v
		}
	}
	return result, nil
}

func evalNot(operand any, subject Subject) (bool, error) {
	var sub map[string]any
	switch o := operand.(type) {
	case map[string]any:
		sub = o
	case []any:
		if len(o) != 1 {
			return false, errf("not", "expected exactly one operand, got %d", len(o))
		}
		inner, ok := o[0].(map[string]any)
		if !ok {
			return false, errf("not", "operand must be an expression object, got %T", o[0])
		}
		sub = inner
	default:
		return false, errf("not", "operand must be an expression object or single-element array, got %T", operand)
	}

	v, err := Evaluate(sub, subject)
	if err != nil {
		return false, err
	}
	return !v, nil
}

// evalTest handles the property-testing operators. Operand shape is
// [propertyDescriptor, testValue(s)] - exactly two elements.
func evalTest(op string, operand any, subject Subject) (bool, error) {
	pair, ok := operand.([]any)
	if !ok {
		return false, errf(op, "operand must be an array, got %T", operand)
	}
	if len(pair) != 2 {
		return false, errf(op, "expected [property, value] with 2 elements, got %d", len(pair))
	}

	id, ns, err := propertySource(op, pair[0])
	if err != nil {
		return false, err
	}
	actual := subject.GetPropertyValue(id, ns)
	test := pair[1]

	switch op {
	case "=":
		return looseEqual(actual, test), nil
	case "!=":
		return !looseEqual(actual, test), nil
	case "in":
		list, ok := test.([]any)
		if !ok {
			return false, errf(op, "test value must be an array, got %T", test)
		}
		for _, candidate := range list {
			if looseEqual(actual, candidate) {
				return true, nil
			}
		}
		return false, nil
	case "contains_all":
		return evalContains(op, actual, test, true)
	case "contains_any":
		return evalContains(op, actual, test, false)
	}
	return false, errf(op, "unknown operator") // unreachable
}

// propertySource unpacks a property descriptor: {"source": "id"} or
// {"source": {"ns": ..., "id": ...}}.
func propertySource(op string, v any) (id, ns string, err error) {
	desc, ok := v.(map[string]any)
	if !ok {
		return "", "", errf(op, "property descriptor must be an object, got %T", v)
	}
	source, ok := desc["source"]
	if !ok {
		return "", "", errf(op, "property descriptor missing \"source\"")
	}

	switch s := source.(type) {
	case string:
		return s, "", nil
	case map[string]any:
		id, ok := s["id"].(string)
		if !ok {
			return "", "", errf(op, "property source missing string \"id\"")
		}
		ns, _ := s["ns"].(string)
		return id, ns, nil
	default:
		return "", "", errf(op, "property source must be a string or {ns, id} object, got %T", source)
	}
}

// evalContains reduces the test-value list over membership in the
// actual value. The actual is an array (membership by loose equality)
// or a map treated as a set via truthy-keyed membership. A nil actual
// contains nothing.
func evalContains(op string, actual, test any, all bool) (bool, error) {
	tests, ok := test.([]any)
	if !ok {
		return false, errf(op, "test value must be an array, got %T", test)
	}

	result := all
	for _, tv := range tests {
		member, err := contains(op, actual, tv)
		if err != nil {
			return false, err
		}
		if all {
			result = result && member
		} else {
			result = result || member
		}
	}
	return result, nil
}

func contains(op string, actual, tv any) (bool, error) {
	switch a := actual.(type) {
	case nil:
		return false, nil
	case []any:
		for _, item := range a {
			if looseEqual(item, tv) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		key, ok := tv.(string)
		if !ok {
			key = fmt.Sprint(tv)
		}
		return truthy(a[key]), nil
	default:
		return false, errf(op, "property value must be an array or object, got %T", actual)
	}
}

// looseEqual compares values the way JSON data is usually compared:
// numbers numerically regardless of decoded Go type, everything else
// by deep equality.
func looseEqual(a, b any) bool {
	if an, ok := asFloat(a); ok {
		if bn, ok := asFloat(b); ok {
			return an == bn
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if f, ok := asFloat(v); ok {
			return f != 0
		}
		return true
	}
}
