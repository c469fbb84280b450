package ast

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scalar is a sealed interface for literal values: string, number, or
// boolean. Only String, Number, and Bool implement it.
//
// Numbers are backed by decimal.Decimal so that literals round-trip
// through parse and re-render without floating-point drift.
type Scalar interface {
	Node

	// JSONValue returns the scalar as a value embeddable in the native
	// JSON query format. Numbers come back as json.Number so that
	// encoding produces a JSON number, not a quoted string.
	JSONValue() any

	scalarValue() // Sealed - only these types implement it
}

// String is a string literal. Rendered single-quoted in query text.
type String string

func (String) scalarValue() {}

func (s String) QueryString() string {
	return quoteString(string(s))
}

func (s String) JSONValue() any {
	return string(s)
}

// Number is a numeric literal.
type Number struct {
	decimal.Decimal
}

func (Number) scalarValue() {}

// NewNumber creates a Number from a decimal value.
func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

// NumberFromString parses a numeric literal.
func NumberFromString(s string) (Number, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Number{}, fmt.Errorf("invalid number literal %q: %w", s, err)
	}
	return Number{Decimal: d}, nil
}

func (n Number) QueryString() string {
	return n.Decimal.String()
}

func (n Number) JSONValue() any {
	return json.Number(n.Decimal.String())
}

// Bool is a boolean literal.
type Bool bool

func (Bool) scalarValue() {}

func (b Bool) QueryString() string {
	if b {
		return "true"
	}
	return "false"
}

func (b Bool) JSONValue() any {
	return bool(b)
}

// ScalarFromJSON converts a decoded JSON value into a Scalar.
// Accepts string, bool, json.Number, and the native Go numeric types
// produced by encoding/json and yaml decoders. Everything else is a
// shape error.
func ScalarFromJSON(v any) (Scalar, error) {
	switch val := v.(type) {
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		return NumberFromString(string(val))
	case int:
		return Number{Decimal: decimal.NewFromInt(int64(val))}, nil
	case int64:
		return Number{Decimal: decimal.NewFromInt(val)}, nil
	case float64:
		return Number{Decimal: decimal.NewFromFloat(val)}, nil
	case Scalar:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported scalar type: %T", v)
	}
}

// quoteString renders a string literal single-quoted, escaping
// backslashes and embedded quotes.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
