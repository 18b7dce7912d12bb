package cli

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_Table(t *testing.T) {
	out, err := execute(t, "describe", "--catalog", testdata("catalog.yaml"), "EMP")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "describe_emp", []byte(out))
}

func TestDescribe_CaseInsensitiveLookup(t *testing.T) {
	out, err := execute(t, "describe", "--catalog", testdata("catalog.yaml"), "dept")
	require.NoError(t, err)
	assert.Contains(t, out, "DEPT ROW(deptno INT, dname VARCHAR(64) NULL)")
}

func TestDescribe_JSONOutput(t *testing.T) {
	out, err := execute(t, "describe", "--format", "json", "--catalog", testdata("catalog.yaml"), "EMP")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "EMP", data["table"])
	assert.Equal(t, []any{"empno"}, data["ordering"])
}

func TestDescribe_TableNotFound(t *testing.T) {
	out, err := execute(t, "describe", "--catalog", testdata("catalog.yaml"), "GHOST")
	require.Error(t, err)
	assert.Equal(t, ExitInvalid, GetExitCode(err))
	assert.Contains(t, out, "TABLE_NOT_FOUND")
}

func TestDescribe_BadCatalogPath(t *testing.T) {
	_, err := execute(t, "describe", "--catalog", "/nonexistent/cat.yaml", "EMP")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
