package cond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, expr string, subject Subject) bool {
	t.Helper()
	ok, err := EvaluateBytes([]byte(expr), subject)
	require.NoError(t, err)
	return ok
}

func TestEvaluateEquality(t *testing.T) {
	subject := Properties{"status": "open", "count": 3}

	assert.True(t, eval(t, `{"=": [{"source": "status"}, "open"]}`, subject))
	assert.False(t, eval(t, `{"=": [{"source": "status"}, "closed"]}`, subject))
	assert.True(t, eval(t, `{"!=": [{"source": "status"}, "closed"]}`, subject))
}

func TestEvaluateNumbersCompareAcrossTypes(t *testing.T) {
	// Subject holds a Go int; the expression decodes to float64. Loose
	// numeric comparison bridges the type gap.
	subject := Properties{"count": 3}
	assert.True(t, eval(t, `{"=": [{"source": "count"}, 3]}`, subject))
	assert.True(t, eval(t, `{"=": [{"source": "count"}, 3.0]}`, subject))
	assert.False(t, eval(t, `{"=": [{"source": "count"}, "3"]}`, subject))
}

func TestEvaluateNamespacedSource(t *testing.T) {
	subject := Properties{"log:level": "error", "level": "info"}

	// Qualified lookup wins; bare lookup is the fallback.
	assert.True(t, eval(t, `{"=": [{"source": {"ns": "log", "id": "level"}}, "error"]}`, subject))
	assert.True(t, eval(t, `{"=": [{"source": {"ns": "audit", "id": "level"}}, "info"]}`, subject))
	assert.True(t, eval(t, `{"=": [{"source": "level"}, "info"]}`, subject))
}

func TestEvaluateSubjectFunc(t *testing.T) {
	subject := SubjectFunc(func(id, ns string) any {
		if ns == "env" && id == "region" {
			return "eu-west-1"
		}
		return nil
	})

	assert.True(t, eval(t, `{"=": [{"source": {"ns": "env", "id": "region"}}, "eu-west-1"]}`, subject))
}

func TestEvaluateJunctions(t *testing.T) {
	subject := Properties{"a": 1, "b": 2}

	assert.True(t, eval(t, `{"and": [{"=": [{"source": "a"}, 1]}, {"=": [{"source": "b"}, 2]}]}`, subject))
	assert.False(t, eval(t, `{"and": [{"=": [{"source": "a"}, 1]}, {"=": [{"source": "b"}, 9]}]}`, subject))
	assert.True(t, eval(t, `{"or": [{"=": [{"source": "a"}, 9]}, {"=": [{"source": "b"}, 2]}]}`, subject))
	assert.False(t, eval(t, `{"or": [{"=": [{"source": "a"}, 9]}, {"=": [{"source": "b"}, 9]}]}`, subject))

	// Vacuous cases: empty AND is true, empty OR is false.
	assert.True(t, eval(t, `{"and": []}`, subject))
	assert.False(t, eval(t, `{"or": []}`, subject))
}

func TestEvaluateNot(t *testing.T) {
	subject := Properties{"a": 1}

	// Both operand shapes are accepted.
	assert.False(t, eval(t, `{"not": {"=": [{"source": "a"}, 1]}}`, subject))
	assert.False(t, eval(t, `{"not": [{"=": [{"source": "a"}, 1]}]}`, subject))
	assert.True(t, eval(t, `{"not": {"=": [{"source": "a"}, 2]}}`, subject))
}

func TestEvaluateIn(t *testing.T) {
	subject := Properties{"code": 2}

	assert.True(t, eval(t, `{"in": [{"source": "code"}, [1, 2, 3]]}`, subject))
	assert.False(t, eval(t, `{"in": [{"source": "code"}, [4, 5]]}`, subject))
	assert.False(t, eval(t, `{"in": [{"source": "code"}, []]}`, subject))
}

func TestEvaluateContainsOnArray(t *testing.T) {
	subject := Properties{"tags": []any{"web", "prod", "eu"}}

	assert.True(t, eval(t, `{"contains_all": [{"source": "tags"}, ["web", "prod"]]}`, subject))
	assert.False(t, eval(t, `{"contains_all": [{"source": "tags"}, ["web", "staging"]]}`, subject))
	assert.True(t, eval(t, `{"contains_any": [{"source": "tags"}, ["staging", "eu"]]}`, subject))
	assert.False(t, eval(t, `{"contains_any": [{"source": "tags"}, ["staging", "dev"]]}`, subject))
}

func TestEvaluateContainsOnMap(t *testing.T) {
	// A map subject value acts as a set: keys with truthy values are
	// members.
	subject := Properties{"features": map[string]any{
		"search":  true,
		"billing": false,
		"exports": 1,
		"legacy":  "",
	}}

	assert.True(t, eval(t, `{"contains_all": [{"source": "features"}, ["search", "exports"]]}`, subject))
	assert.False(t, eval(t, `{"contains_all": [{"source": "features"}, ["search", "billing"]]}`, subject))
	assert.True(t, eval(t, `{"contains_any": [{"source": "features"}, ["legacy", "search"]]}`, subject))
	assert.False(t, eval(t, `{"contains_any": [{"source": "features"}, ["billing", "legacy"]]}`, subject))
}

func TestEvaluateContainsOnMissingProperty(t *testing.T) {
	subject := Properties{}

	// A nil actual contains nothing: all-of an empty test list still
	// holds vacuously, any-of does not.
	assert.False(t, eval(t, `{"contains_any": [{"source": "tags"}, ["x"]]}`, subject))
	assert.False(t, eval(t, `{"contains_all": [{"source": "tags"}, ["x"]]}`, subject))
	assert.True(t, eval(t, `{"contains_all": [{"source": "tags"}, []]}`, subject))
}

func TestEvaluateNestedExpression(t *testing.T) {
	subject := Properties{"status": "open", "severity": 4, "tags": []any{"prod"}}

	expr := `{"and": [
		{"=": [{"source": "status"}, "open"]},
		{"or": [
			{"in": [{"source": "severity"}, [4, 5]]},
			{"contains_any": [{"source": "tags"}, ["canary"]]}
		]}
	]}`
	assert.True(t, eval(t, expr, subject))
}

func TestEvaluateMalformedExpressions(t *testing.T) {
	subject := Properties{"a": 1}

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"two operator keys", `{"and": [], "or": []}`, "exactly one operator key"},
		{"unknown operator", `{"xor": []}`, "unknown operator"},
		{"junction operand not array", `{"and": {"=": []}}`, "operand must be an array"},
		{"test arity", `{"=": [{"source": "a"}]}`, "2 elements"},
		{"descriptor not object", `{"=": ["a", 1]}`, "descriptor must be an object"},
		{"descriptor missing source", `{"=": [{"id": "a"}, 1]}`, `missing "source"`},
		{"source missing id", `{"=": [{"source": {"ns": "x"}}, 1]}`, `missing string "id"`},
		{"in test not array", `{"in": [{"source": "a"}, 1]}`, "must be an array"},
		{"contains on scalar", `{"contains_all": [{"source": "a"}, ["x"]]}`, "must be an array or object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateBytes([]byte(tt.expr), subject)
			var ee *EvalError
			require.ErrorAs(t, err, &ee)
			assert.Contains(t, ee.Error(), tt.want)
		})
	}
}

func TestEvaluateBytesRejectsBadJSON(t *testing.T) {
	_, err := EvaluateBytes([]byte(`{`), Properties{})
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, ee.Message, "decode expression")
}
