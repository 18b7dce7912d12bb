package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdata(parts ...string) string {
	return filepath.Join(append([]string{"..", "..", "testdata"}, parts...)...)
}

// execute runs the CLI with args and returns stdout and the command error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_SimpleSelect(t *testing.T) {
	out, err := execute(t, "validate", "--catalog", testdata("catalog.yaml"), testdata("queries", "simple.yaml"))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "validate_simple", []byte(out))
}

func TestValidate_OuterJoin(t *testing.T) {
	out, err := execute(t, "validate", "--catalog", testdata("catalog.yaml"), testdata("queries", "join.yaml"))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "validate_join", []byte(out))
}

func TestValidate_Union(t *testing.T) {
	out, err := execute(t, "validate", "--catalog", testdata("catalog.yaml"), testdata("queries", "union.yaml"))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "validate_union", []byte(out))
}

func TestValidate_CUECatalog(t *testing.T) {
	out, err := execute(t, "validate", "--catalog", testdata("catalog.cue"), testdata("queries", "simple.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "ROW(empno INT, ename VARCHAR(32) NULL)")
}

func TestValidate_JSONOutput(t *testing.T) {
	out, err := execute(t, "validate", "--format", "json",
		"--catalog", testdata("catalog.yaml"), testdata("queries", "join.yaml"))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Session, "session token correlates log lines")

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ROW(ename VARCHAR(32) NULL, dname VARCHAR(64) NULL, salary INT)", data["row_type"])

	fields, ok := data["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 3)
	salary := fields[2].(map[string]any)
	assert.Equal(t, "salary", salary["name"])
	// ORDER BY salary makes the output column monotonic.
	assert.Equal(t, "increasing", salary["monotonicity"])
}

func TestValidate_FieldNotFound(t *testing.T) {
	out, err := execute(t, "validate", "--catalog", testdata("catalog.yaml"), testdata("queries", "bad_column.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitInvalid, GetExitCode(err))
	assert.Contains(t, out, "FIELD_NOT_FOUND")
	assert.Contains(t, out, `"nope"`)
}

func TestValidate_RecursiveWithAlias(t *testing.T) {
	out, err := execute(t, "validate", "--catalog", testdata("catalog.yaml"), testdata("queries", "recursive_with.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitInvalid, GetExitCode(err))
	assert.Contains(t, out, "CYCLIC_REFERENCE")
	assert.Contains(t, out, "r -> r")
}

func TestValidate_ErrorJSON(t *testing.T) {
	out, err := execute(t, "validate", "--format", "json",
		"--catalog", testdata("catalog.yaml"), testdata("queries", "bad_column.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitInvalid, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FIELD_NOT_FOUND", resp.Error.Code)
	assert.NotEmpty(t, resp.Session)
}

func TestValidate_MissingCatalog(t *testing.T) {
	_, err := execute(t, "validate", testdata("queries", "simple.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_UnreadableQueryFile(t *testing.T) {
	_, err := execute(t, "validate", "--catalog", testdata("catalog.yaml"), "/nonexistent/query.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_InvalidFormatFlag(t *testing.T) {
	_, err := execute(t, "validate", "--format", "xml",
		"--catalog", testdata("catalog.yaml"), testdata("queries", "simple.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}
