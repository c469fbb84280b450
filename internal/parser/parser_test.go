package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqx/internal/ast"
)

func mustParse(t *testing.T, text string) Clauses {
	t.Helper()
	c, errs := ParseQuery(text)
	require.Empty(t, errs, "expected clean parse of %q", text)
	return c
}

func TestParseFullQuery(t *testing.T) {
	c := mustParse(t, "SELECT count(x) AS total, name GROUP BY account WHERE status = 'open' ORDER BY name DESC LIMIT 10 OFFSET 5")

	require.NotNil(t, c.Select)
	require.Equal(t, 2, c.Select.Columns.Len())

	proj, ok := c.Select.Columns.Items[0].(*ast.ProjectAs)
	require.True(t, ok)
	assert.Equal(t, "total", proj.Alias.Text)
	agg, ok := proj.Origin.(*ast.Aggregate)
	require.True(t, ok)
	assert.Equal(t, "count", agg.Fn)
	assert.Equal(t, "x", agg.Arg.Name())

	prop, ok := c.Select.Columns.Items[1].(*ast.Property)
	require.True(t, ok)
	assert.Equal(t, "name", prop.Name())

	require.NotNil(t, c.GroupBy)
	assert.Equal(t, "GROUP BY account", c.GroupBy.QueryString())

	require.NotNil(t, c.Where)
	assert.Equal(t, "WHERE status = 'open'", c.Where.QueryString())

	require.NotNil(t, c.OrderBy)
	assert.Equal(t, "ORDER BY name DESC", c.OrderBy.QueryString())

	require.NotNil(t, c.Limit)
	assert.Equal(t, int64(10), c.Limit.Count)
	assert.Equal(t, int64(5), c.Limit.Offset)
}

func TestParseKeywordsCaseInsensitive(t *testing.T) {
	c := mustParse(t, "select name where status = 'open' order by name asc")

	require.NotNil(t, c.Select)
	require.NotNil(t, c.Where)
	require.NotNil(t, c.OrderBy)
	assert.Equal(t, ast.Ascending, c.OrderBy.Terms[0].Dir)
}

func TestParseOrBindsLooserThanAnd(t *testing.T) {
	c := mustParse(t, "SELECT a WHERE x = 1 OR y = 2 AND z = 3")

	or, ok := c.Where.Root.(*ast.Or)
	require.True(t, ok)
	require.Equal(t, 2, or.Len())

	_, ok = or.Items[0].(*ast.Comparison)
	assert.True(t, ok)

	and, ok := or.Items[1].(*ast.And)
	require.True(t, ok)
	assert.Equal(t, 2, and.Len())
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	c := mustParse(t, "SELECT a WHERE (x = 1 OR y = 2) AND z = 3")

	and, ok := c.Where.Root.(*ast.And)
	require.True(t, ok)
	require.Equal(t, 2, and.Len())

	or, ok := and.Items[0].(*ast.Or)
	require.True(t, ok)
	assert.Equal(t, 2, or.Len())
}

func TestParseSingleConditionIsBareComparator(t *testing.T) {
	c := mustParse(t, "SELECT a WHERE status = 'open'")

	// A single condition is not wrapped in a group.
	_, ok := c.Where.Root.(*ast.Comparison)
	assert.True(t, ok)
}

func TestParseInList(t *testing.T) {
	c := mustParse(t, "SELECT a WHERE code IN (1, 2.5, 'x', true)")

	in, ok := c.Where.Root.(*ast.In)
	require.True(t, ok)
	assert.Equal(t, "code IN (1, 2.5, 'x', true)", in.QueryString())
}

func TestParseScalarKinds(t *testing.T) {
	c := mustParse(t, "SELECT a WHERE s = 'text' AND n = -4.25 AND b = FALSE")

	and, ok := c.Where.Root.(*ast.And)
	require.True(t, ok)
	require.Equal(t, 3, and.Len())
	assert.Equal(t, "s = 'text' AND n = -4.25 AND b = false", and.QueryString())
}

func TestParseNamespacedAndDottedProperties(t *testing.T) {
	c := mustParse(t, "SELECT log:payload.user.id WHERE log:level = 'error'")

	prop, ok := c.Select.Columns.Items[0].(*ast.Property)
	require.True(t, ok)
	assert.Equal(t, "log", prop.NS)
	assert.Equal(t, "payload.user.id", prop.ID)
}

func TestParseGroupByPermuted(t *testing.T) {
	c := mustParse(t, "SELECT a GROUP BY PERMUTED x, y GROUP BY z")

	require.NotNil(t, c.GroupByPermuted)
	assert.True(t, c.GroupByPermuted.Permuted)
	assert.Len(t, c.GroupByPermuted.Props, 2)

	require.NotNil(t, c.GroupBy)
	assert.Len(t, c.GroupBy.Props, 1)
}

func TestParseHaving(t *testing.T) {
	c := mustParse(t, "SELECT count(x) AS n GROUP BY a HAVING n > 10")

	require.NotNil(t, c.Having)
	assert.Equal(t, "HAVING n > 10", c.Having.QueryString())
}

func TestParseMustBeginWithSelect(t *testing.T) {
	_, errs := ParseQuery("WHERE x = 1")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "must begin with SELECT")
}

func TestParseAccumulatesMultipleErrors(t *testing.T) {
	// One malformed WHERE and one malformed LIMIT: both reported in a
	// single pass thanks to clause-keyword resynchronization.
	_, errs := ParseQuery("SELECT a WHERE x LIMIT y")
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message, "expected comparison operator")
	assert.Contains(t, errs[1].Message, "expected row count after LIMIT")
}

func TestParseErrorOffsets(t *testing.T) {
	_, errs := ParseQuery("SELECT a WHERE x LIMIT 5")
	require.Len(t, errs, 1)
	assert.Equal(t, 17, errs[0].Off) // points at LIMIT, where a comparator was expected
	assert.Equal(t, "LIMIT", errs[0].Near)
}

func TestParseDuplicateClauses(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"select", "SELECT a SELECT b", "duplicate SELECT clause"},
		{"where", "SELECT a WHERE x = 1 WHERE y = 2", "duplicate WHERE clause"},
		{"order by", "SELECT a ORDER BY x ORDER BY y", "duplicate ORDER BY clause"},
		{"limit", "SELECT a LIMIT 1 LIMIT 2", "duplicate LIMIT clause"},
		{"group by", "SELECT a GROUP BY x GROUP BY y", "duplicate GROUP BY clause"},
		{"having", "SELECT a HAVING x = 1 HAVING y = 2", "duplicate HAVING clause"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := ParseQuery(tt.query)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Message, tt.want)
		})
	}
}

func TestParseUnbalancedParentheses(t *testing.T) {
	_, errs := ParseQuery("SELECT a WHERE (x = 1 OR y = 2")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "unbalanced parentheses")
	assert.Equal(t, "end of query", errs[0].Near)
}

func TestParseBadSelectEntry(t *testing.T) {
	c, errs := ParseQuery("SELECT 5 WHERE x = 1")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "expected column name")

	// Recovery resumes at the WHERE keyword.
	assert.Nil(t, c.Select)
	assert.NotNil(t, c.Where)
}

func TestParseLimitRejectsNonInteger(t *testing.T) {
	_, errs := ParseQuery("SELECT a LIMIT 2.5")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "expected integer")
}

func TestParseAliasRequiresIdent(t *testing.T) {
	_, errs := ParseQuery("SELECT a AS 'quoted'")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "expected alias after AS")
}
