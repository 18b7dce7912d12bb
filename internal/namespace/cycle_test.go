package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relscope/internal/sqlast"
	"github.com/roach88/relscope/internal/sqlname"
	"github.com/roach88/relscope/internal/testutil"
)

func cte(name string, refs ...string) sqlast.CTE {
	sel := &sqlast.Select{Items: []sqlast.SelectItem{{Expr: testutil.ColRef("x")}}}
	if len(refs) == 1 {
		sel.From = &sqlast.TableRef{Name: refs[0]}
	} else if len(refs) > 1 {
		join := &sqlast.Join{
			Left:  &sqlast.TableRef{Name: refs[0]},
			Right: &sqlast.TableRef{Name: refs[1]},
		}
		sel.From = join
	}
	return sqlast.CTE{Name: name, Query: sel}
}

func TestAnalyzeAliasCycles_Acyclic(t *testing.T) {
	ctes := []sqlast.CTE{
		cte("a", "EMP"),
		cte("b", "a"),
		cte("c", "b", "a"),
	}
	cycles := AnalyzeAliasCycles(ctes, sqlname.CaseInsensitive())
	assert.Empty(t, cycles)
}

func TestAnalyzeAliasCycles_SelfLoop(t *testing.T) {
	cycles := AnalyzeAliasCycles([]sqlast.CTE{cte("r", "r")}, sqlname.CaseInsensitive())
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"r", "r"}, cycles[0].Path)
	assert.Contains(t, cycles[0].Message, "r")
}

func TestAnalyzeAliasCycles_MutualCycle(t *testing.T) {
	ctes := []sqlast.CTE{
		cte("a", "b"),
		cte("b", "a"),
	}
	cycles := AnalyzeAliasCycles(ctes, sqlname.CaseInsensitive())
	require.Len(t, cycles, 1)

	path := cycles[0].Path
	require.Len(t, path, 3)
	assert.Equal(t, path[0], path[2], "path closes the cycle")
	assert.ElementsMatch(t, []string{"a", "b"}, path[:2])
}

func TestAnalyzeAliasCycles_CaseInsensitiveEdges(t *testing.T) {
	// The body references the alias under a different case.
	cycles := AnalyzeAliasCycles([]sqlast.CTE{cte("Rec", "REC")}, sqlname.CaseInsensitive())
	require.Len(t, cycles, 1)
	assert.Equal(t, "Rec", cycles[0].Path[0], "declared spelling survives")
}

func TestAnalyzeAliasCycles_CatalogTablesIgnored(t *testing.T) {
	// EMP is a catalog table, not an alias; no edge, no cycle.
	cycles := AnalyzeAliasCycles([]sqlast.CTE{cte("a", "EMP")}, sqlname.CaseInsensitive())
	assert.Empty(t, cycles)
}

func TestAnalyzeAliasCycles_CycleBesideAcyclicAliases(t *testing.T) {
	ctes := []sqlast.CTE{
		cte("ok", "EMP"),
		cte("x", "y"),
		cte("y", "x"),
	}
	cycles := AnalyzeAliasCycles(ctes, sqlname.CaseInsensitive())
	require.Len(t, cycles, 1)
	assert.NotContains(t, cycles[0].Path, "ok")
}

func TestAnalyzeAliasCycles_EmptyList(t *testing.T) {
	assert.Nil(t, AnalyzeAliasCycles(nil, sqlname.CaseInsensitive()))
}

func TestAnalyzeAliasCycles_MultiNodeCyclePathIsStable(t *testing.T) {
	ctes := []sqlast.CTE{
		cte("a", "b"),
		cte("b", "c"),
		cte("c", "a"),
	}
	cycles := AnalyzeAliasCycles(ctes, sqlname.CaseInsensitive())
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycles[0].Path,
		"path follows declaration order on every run")
}

func TestAnalyzeAliasCycles_ShadowedRedeclaration(t *testing.T) {
	// The body redeclares the same alias name; its reference binds to the
	// inner declaration, so the outer alias has no edge to itself.
	body := &sqlast.Select{
		With:  []sqlast.CTE{cte("w", "EMP")},
		From:  &sqlast.TableRef{Name: "w"},
		Items: []sqlast.SelectItem{{Expr: testutil.ColRef("x")}},
	}
	cycles := AnalyzeAliasCycles([]sqlast.CTE{{Name: "w", Query: body}}, sqlname.CaseInsensitive())
	assert.Empty(t, cycles)
}

func TestAnalyzeAliasCycles_ShadowingIsCaseInsensitive(t *testing.T) {
	body := &sqlast.Select{
		With:  []sqlast.CTE{cte("W", "EMP")},
		From:  &sqlast.TableRef{Name: "w"},
		Items: []sqlast.SelectItem{{Expr: testutil.ColRef("x")}},
	}
	cycles := AnalyzeAliasCycles([]sqlast.CTE{{Name: "w", Query: body}}, sqlname.CaseInsensitive())
	assert.Empty(t, cycles)
}

func TestAnalyzeAliasCycles_NestedSubqueryReferences(t *testing.T) {
	// The reference hides one query level down, unshadowed, so the walk
	// still counts it.
	inner := &sqlast.Select{
		From:  &sqlast.TableRef{Name: "deep"},
		Items: []sqlast.SelectItem{{Expr: testutil.ColRef("x")}},
	}
	outer := &sqlast.Select{
		From:  &sqlast.Alias{Input: inner, Name: "t"},
		Items: []sqlast.SelectItem{{Expr: testutil.ColRef("x")}},
	}
	cycles := AnalyzeAliasCycles([]sqlast.CTE{{Name: "deep", Query: outer}}, sqlname.CaseInsensitive())
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"deep", "deep"}, cycles[0].Path)
}
