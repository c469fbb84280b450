package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCommandValid(t *testing.T) {
	out, _, err := runCLI(t, "parse", "SELECT a WHERE x = 1 LIMIT 5")
	require.NoError(t, err)
	assert.Contains(t, out, "Query valid")
	assert.Contains(t, out, "SELECT a WHERE x = 1 LIMIT 5")
}

func TestParseCommandInvalid(t *testing.T) {
	out, _, err := runCLI(t, "parse", "SELECT a WHERE x LIMIT y")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Query invalid")
	assert.Contains(t, out, "expected comparison operator")
	assert.Contains(t, out, "expected row count after LIMIT")
}

func TestParseCommandJSONFormat(t *testing.T) {
	out, _, err := runCLI(t, "--format", "json", "parse", "SELECT a")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestParseCommandFromFile(t *testing.T) {
	path := writeTempFile(t, "query.sqx", "SELECT a ORDER BY a DESC")
	out, _, err := runCLI(t, "parse", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT a ORDER BY a DESC")
}

func TestParseCommandNoInput(t *testing.T) {
	_, _, err := runCLI(t, "parse")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConvertTextToJSON(t *testing.T) {
	path := writeTempFile(t, "query.sqx", "SELECT a WHERE x = 1")
	out, _, err := runCLI(t, "convert", path, "--to", "json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, []any{"a"}, doc["select"])
}

func TestConvertJSONToText(t *testing.T) {
	path := writeTempFile(t, "query.json",
		`{"select": ["a"], "where": {"=": ["x", 1]}, "limit": {"count": 5}}`)
	out, _, err := runCLI(t, "convert", path, "--to", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT a WHERE x = 1 LIMIT 5")
}

func TestConvertJSONSchemaRejection(t *testing.T) {
	path := writeTempFile(t, "query.json", `{"limit": {"count": 0}}`)
	_, _, err := runCLI(t, "convert", path, "--to", "text")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "schema validation")
}

func TestConvertYAMLToText(t *testing.T) {
	path := writeTempFile(t, "query.yaml", "select:\n  - a\nlimit:\n  count: 3\n")
	out, _, err := runCLI(t, "convert", path, "--to", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT a LIMIT 3")
}

func TestConvertRejectsBadTarget(t *testing.T) {
	path := writeTempFile(t, "query.sqx", "SELECT a")
	_, _, err := runCLI(t, "convert", path, "--to", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDescribeCommand(t *testing.T) {
	out, _, err := runCLI(t, "describe", "SELECT count(x) AS total, name")
	require.NoError(t, err)
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "(aggregate)")
	assert.Contains(t, out, "name\tany")
}

func TestDescribeCommandJSON(t *testing.T) {
	out, _, err := runCLI(t, "--format", "json", "describe", "SELECT count(x) AS total")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   DescribeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Aggregate)
	require.Len(t, resp.Data.Columns, 1)
	assert.Equal(t, "total", resp.Data.Columns[0].Name)
}

func TestEvalCommandMatch(t *testing.T) {
	expr := writeTempFile(t, "expr.json", `{"=": [{"source": "status"}, "open"]}`)
	subject := writeTempFile(t, "subject.json", `{"status": "open"}`)

	out, _, err := runCLI(t, "eval", "--expr", expr, "--subject", subject)
	require.NoError(t, err)
	assert.Contains(t, out, "true")
}

func TestEvalCommandNoMatch(t *testing.T) {
	expr := writeTempFile(t, "expr.json", `{"=": [{"source": "status"}, "open"]}`)
	subject := writeTempFile(t, "subject.json", `{"status": "closed"}`)

	out, _, err := runCLI(t, "eval", "--expr", expr, "--subject", subject)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "false")
}

func TestEvalCommandMalformedExpression(t *testing.T) {
	expr := writeTempFile(t, "expr.json", `{"xor": []}`)
	subject := writeTempFile(t, "subject.json", `{}`)

	out, _, err := runCLI(t, "eval", "--expr", expr, "--subject", subject)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E_EVAL")
}

func TestCatalogSaveListGetDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")

	out, _, err := runCLI(t, "catalog", "save", "SELECT a WHERE x = 1", "--db", db, "--name", "demo")
	require.NoError(t, err)
	key := string(bytes.TrimSpace([]byte(out)))
	require.NotEmpty(t, key)

	out, _, err = runCLI(t, "catalog", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, key)
	assert.Contains(t, out, "demo")

	out, _, err = runCLI(t, "catalog", "get", key, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT a WHERE x = 1")

	_, _, err = runCLI(t, "catalog", "delete", key, "--db", db)
	require.NoError(t, err)

	_, _, err = runCLI(t, "catalog", "get", key, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestInvalidFormatFlag(t *testing.T) {
	_, _, err := runCLI(t, "--format", "yaml", "parse", "SELECT a")
	assert.Error(t, err)
}
