package namespace

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relscope/internal/rowtype"
	"github.com/roach88/relscope/internal/sqlast"
	"github.com/roach88/relscope/internal/sqltype"
	"github.com/roach88/relscope/internal/testutil"
)

// validated builds a validator over the standard fixture catalog, validates
// root, and returns the validator and root namespace.
func validated(t *testing.T, root sqlast.Node) (*Validator, *Namespace) {
	t.Helper()
	v := New(testutil.EmpDeptCatalog())
	ns, err := v.ValidateQuery(root)
	require.NoError(t, err)
	return v, ns
}

func TestRowType_DerivedOnce(t *testing.T) {
	_, ns := validated(t, testutil.SelectStar(&sqlast.TableRef{Name: "EMP"}, "empno", "ename"))

	rt1, err := ns.RowType()
	require.NoError(t, err)
	rt2, err := ns.RowType()
	require.NoError(t, err)

	// Same object, not a structural copy.
	assert.Same(t, rt1, rt2)
	assert.Equal(t, 1, ns.derivations, "derivation should run exactly once")
}

func TestRowType_ConcurrentAccess(t *testing.T) {
	_, ns := validated(t, testutil.SelectStar(&sqlast.TableRef{Name: "EMP"}, "empno"))

	const goroutines = 50
	results := make(chan *rowtype.RowType, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt, err := ns.RowType()
			assert.NoError(t, err)
			results <- rt
		}()
	}
	wg.Wait()
	close(results)

	var first *rowtype.RowType
	for rt := range results {
		if first == nil {
			first = rt
		}
		assert.Same(t, first, rt, "every caller should observe the same row type")
	}
}

func TestSetRowType_BeforeDerivation(t *testing.T) {
	reg := NewRegistry(nil)
	ns := reg.newNamespace(KindOther, &sqlast.TableRef{Name: "v"}, nil)

	override := rowtype.FromFields([]rowtype.Field{testutil.Col("x", sqltype.KindInt)})
	require.NoError(t, ns.SetRowType(override))

	rt, err := ns.RowType()
	require.NoError(t, err)
	assert.Same(t, override, rt)
	assert.Equal(t, 0, ns.derivations, "override should skip derivation")
}

func TestSetRowType_AfterDerivationIsStale(t *testing.T) {
	reg := NewRegistry(nil)
	ns := reg.newNamespace(KindOther, &sqlast.TableRef{Name: "v"}, nil)

	_, err := ns.RowType()
	require.NoError(t, err)

	err = ns.SetRowType(rowtype.FromFields(nil))
	require.Error(t, err)
	assert.True(t, IsInternal(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeStaleOverride, ve.Code)
}

func TestOtherNamespace_EmptyRowWithoutOverride(t *testing.T) {
	reg := NewRegistry(nil)
	ns := reg.newNamespace(KindOther, &sqlast.TableRef{Name: "v"}, nil)

	rt, err := ns.RowType()
	require.NoError(t, err)
	assert.Equal(t, 0, rt.Len())
}

func TestRowTypeSansSystemColumns(t *testing.T) {
	v, _ := validated(t, testutil.SelectStar(&sqlast.TableRef{Name: "EMP"}, "empno"))

	var tableNS *Namespace
	for _, ns := range v.reg.arena {
		if ns.kind == KindTable {
			tableNS = ns
		}
	}
	require.NotNil(t, tableNS)

	full, err := tableNS.RowType()
	require.NoError(t, err)
	assert.Equal(t, 5, full.Len())

	sans, err := tableNS.RowTypeSansSystemColumns()
	require.NoError(t, err)
	assert.Equal(t, 4, sans.Len())
	assert.Equal(t, -1, sans.Index("rowid", v.reg.matcher))

	// Fresh projection per call; the cached full row type is untouched.
	again, err := tableNS.RowTypeSansSystemColumns()
	require.NoError(t, err)
	assert.NotSame(t, sans, again)
	assert.True(t, sans.Equal(again))

	cached, err := tableNS.RowType()
	require.NoError(t, err)
	assert.Same(t, full, cached)
}

func TestMakeNullable_SnapshotSemantics(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	dept := &sqlast.TableRef{Name: "DEPT"}
	ns, err := v.registerNode(dept, dept, &scope{})
	require.NoError(t, err)

	before, err := ns.RowType()
	require.NoError(t, err)
	assert.False(t, before.Field(0).Nullable, "deptno starts non-nullable")

	require.NoError(t, ns.MakeNullable())
	require.NoError(t, ns.MakeNullable()) // idempotent

	after, err := ns.RowType()
	require.NoError(t, err)
	for i := 0; i < after.Len(); i++ {
		assert.True(t, after.Field(i).Nullable)
	}

	// The row type handed out before stays an immutable snapshot.
	assert.False(t, before.Field(0).Nullable)
}

func TestFieldExists(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	emp := &sqlast.TableRef{Name: "EMP"}
	ns, err := v.registerNode(emp, emp, &scope{})
	require.NoError(t, err)

	ok, err := ns.FieldExists("ENAME") // case-insensitive by default
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ns.FieldExists("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupChild_LazyFieldNamespace(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	emp := &sqlast.TableRef{Name: "EMP"}
	ns, err := v.registerNode(emp, emp, &scope{})
	require.NoError(t, err)

	field := ns.LookupChild("empno")
	require.NotNil(t, field)
	assert.Equal(t, KindField, field.Kind())

	rt, err := field.RowType()
	require.NoError(t, err)
	require.Equal(t, 1, rt.Len())
	assert.Equal(t, "empno", rt.Field(0).Name)
	assert.Equal(t, sqltype.KindInt, rt.Field(0).Type.Kind)

	// Memoized: the same child comes back on the second probe.
	assert.Same(t, field, ns.LookupChild("EMPNO"))

	assert.Nil(t, ns.LookupChild("no_such_column"))
}

func TestFieldNamespace_UnknownField(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	emp := &sqlast.TableRef{Name: "EMP"}
	ns, err := v.registerNode(emp, emp, &scope{})
	require.NoError(t, err)

	// Build the field child directly; LookupChild would refuse.
	field := ns.fieldChild("ghost")
	_, err = field.RowType()
	require.Error(t, err)
	assert.True(t, IsFieldNotFound(err))
}

func TestUnwrap_ThroughDecorationLayers(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	dept := &sqlast.TableRef{Name: "DEPT"}
	base, err := v.registerNode(dept, dept, &scope{})
	require.NoError(t, err)

	aliasNode := &sqlast.Alias{Input: dept, Name: "d", Columns: []string{"dno", "dname2"}}
	aliased := WithAlias(base, aliasNode, "d", aliasNode.Columns)
	wrapped := WithContext(aliased, "WITH d")

	// Three layers deep: context over alias over table.
	got, err := wrapped.Unwrap(KindTable)
	require.NoError(t, err)
	assert.Same(t, base, got)

	got, err = wrapped.Unwrap(KindAliasDecoration)
	require.NoError(t, err)
	assert.Same(t, aliased, got)
	assert.Equal(t, "d", got.AliasName())

	assert.True(t, wrapped.IsWrapperFor(KindTable))
	assert.True(t, wrapped.IsWrapperFor(KindContextDecoration))
	assert.False(t, wrapped.IsWrapperFor(KindSelect))

	_, err = wrapped.Unwrap(KindSelect)
	require.Error(t, err)
	assert.True(t, IsInternal(err))

	// Decorations delegate table access to the base layer.
	require.NotNil(t, wrapped.Table())
	assert.Equal(t, "DEPT", wrapped.Table().Name)
}

func TestTranslate_AliasRenames(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	dept := &sqlast.TableRef{Name: "DEPT"}
	aliasNode := &sqlast.Alias{Input: dept, Name: "d", Columns: []string{"dno", "dname2"}}
	ns, err := v.registerNode(aliasNode, aliasNode, &scope{})
	require.NoError(t, err)
	require.Equal(t, KindAliasDecoration, ns.Kind())

	rt, err := ns.RowType()
	require.NoError(t, err)
	assert.Equal(t, "dno", rt.Field(0).Name)
	assert.Equal(t, "dname2", rt.Field(1).Name)

	assert.Equal(t, "deptno", ns.Translate("dno"))
	assert.Equal(t, "dname", ns.Translate("DNAME2"))
	// Names the alias does not rename pass through unchanged.
	assert.Equal(t, "other", ns.Translate("other"))
}

func TestTranslate_IdentityWithoutDecoration(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	emp := &sqlast.TableRef{Name: "EMP"}
	ns, err := v.registerNode(emp, emp, &scope{})
	require.NoError(t, err)

	assert.Equal(t, "empno", ns.Translate("empno"))
	assert.Equal(t, "anything", ns.Translate("anything"))
}

func TestAlias_ColumnCountMismatch(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	aliasNode := &sqlast.Alias{
		Input:   &sqlast.TableRef{Name: "DEPT"},
		Name:    "d",
		Columns: []string{"only_one"},
	}
	_, err := v.ValidateQuery(aliasNode)
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
	assert.Contains(t, err.Error(), "declares 1 columns but input produces 2")
}

func TestAlias_WithoutColumnsSharesNamespace(t *testing.T) {
	v := New(testutil.EmpDeptCatalog())
	aliasNode := &sqlast.Alias{Input: &sqlast.TableRef{Name: "EMP"}, Name: "e"}
	ns, err := v.registerNode(aliasNode, aliasNode, &scope{})
	require.NoError(t, err)

	// No column list means no decoration: both nodes bind to the table
	// namespace, and the alias node is the enclosing node.
	assert.Equal(t, KindTable, ns.Kind())
	assert.Same(t, ns, v.reg.Get(aliasNode))
	assert.Same(t, ns, v.reg.Get(aliasNode.Input))
	assert.Same(t, sqlast.Node(aliasNode), ns.EnclosingNode())
	assert.Same(t, sqlast.Node(aliasNode.Input), ns.Node())
}

func TestRegistry_SessionToken(t *testing.T) {
	a := NewRegistry(nil)
	b := NewRegistry(nil)

	parsed, err := uuid.Parse(a.Session())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, a.Session(), b.Session())
}

func TestRegistry_GetUnknownNode(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Nil(t, reg.Get(&sqlast.TableRef{Name: "x"}))
	assert.Equal(t, 0, reg.Len())
}
