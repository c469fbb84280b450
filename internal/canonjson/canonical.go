// Package canonjson produces RFC 8785-style canonical JSON for query
// fingerprinting and golden-file comparison.
//
// Key differences from encoding/json:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. json.Number values are emitted verbatim, so decimal query
//     literals survive without floating-point drift
package canonjson

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Marshal serializes a decoded-JSON value (string, bool, numbers,
// json.Number, []any, map[string]any) to canonical JSON. Nil values
// are rejected: the query export never produces null placeholders, so
// a null here is a bug upstream.
func Marshal(v any) ([]byte, error) {
	var b strings.Builder
	if err := marshal(&b, v); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func marshal(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical query JSON")
	case string:
		marshalString(b, val)
		return nil
	case bool:
		b.WriteString(strconv.FormatBool(val))
		return nil
	case int:
		b.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
		return nil
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		return nil
	case json.Number:
		b.WriteString(string(val))
		return nil
	case []any:
		return marshalArray(b, val)
	case map[string]any:
		return marshalObject(b, val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalArray(b *strings.Builder, arr []any) error {
	b.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := marshal(b, elem); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	b.WriteByte(']')
	return nil
}

func marshalObject(b *strings.Builder, obj map[string]any) error {
	b.WriteByte('{')
	for i, k := range sortedKeys(obj) {
		if i > 0 {
			b.WriteByte(',')
		}
		marshalString(b, k)
		b.WriteByte(':')
		if err := marshal(b, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	b.WriteByte('}')
	return nil
}

// marshalString writes a canonical JSON string: NFC normalized, with
// only quote, backslash, and control characters escaped. No HTML
// escaping, and U+2028/U+2029 stay literal.
func marshalString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// sortedKeys returns keys in RFC 8785 canonical order: UTF-16 code
// units, not Go's default UTF-8 byte order. The two differ for
// supplementary-plane characters.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
