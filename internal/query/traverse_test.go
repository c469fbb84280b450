package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqx/internal/ast"
)

type visited struct {
	text  string
	depth int
}

func collect(q *SearchQuery, from ast.Node) []visited {
	var out []visited
	q.TraverseDescendants(from, func(node ast.Node, depth int) {
		out = append(out, visited{text: node.QueryString(), depth: depth})
	})
	return out
}

func TestTraverseGroupsAreTransparent(t *testing.T) {
	q := mustQuery(t, "SELECT a WHERE x = 1 AND (y = 2 OR z = 3)")

	got := collect(q, q.Where.Root)

	// The AND root is not visited; its items appear at depth 1. The
	// nested OR is likewise invisible, pushing its comparisons to
	// depth 2 and their operands to depth 3.
	assert.Equal(t, []visited{
		{"x = 1", 1},
		{"x", 2},
		{"1", 2},
		{"y = 2", 2},
		{"y", 3},
		{"2", 3},
		{"z = 3", 2},
		{"z", 3},
		{"3", 3},
	}, got)
}

func TestTraverseOperatorThenDescendants(t *testing.T) {
	q := Empty("")
	require.NoError(t, q.In("code", 1, 2))

	got := collect(q, q.Where.Root)

	assert.Equal(t, []visited{
		{"code IN (1, 2)", 1},
		{"code", 2},
		{"1", 2},
		{"2", 2},
	}, got)
}

func TestTraverseLeafNode(t *testing.T) {
	q := Empty("")
	got := collect(q, ast.ParseProperty("status"))

	assert.Equal(t, []visited{{"status", 0}}, got)
}

func TestTraverseWholeQuery(t *testing.T) {
	q := mustQuery(t, "SELECT name ORDER BY name WHERE x = 1 GROUP BY g LIMIT 5")

	got := collect(q, nil)

	// Clause order is SELECT, WHERE, ORDER BY, GROUP BY, GROUP BY
	// PERMUTED, HAVING, LIMIT; each clause's children start at depth 0.
	assert.Equal(t, []visited{
		{"name", 0},
		{"x = 1", 0},
		{"x", 1},
		{"1", 1},
		{"name", 0},
		{"g", 0},
	}, got)
}

func TestTraverseExcludesTimeRange(t *testing.T) {
	q, err := FromJSONBytes([]byte(`{"time_range": {"duration": 60}}`))
	require.NoError(t, err)
	require.NotNil(t, q.TimeRange)

	assert.Empty(t, collect(q, nil))
}
