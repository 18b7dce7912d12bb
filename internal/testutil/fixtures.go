// Package testutil provides shared catalog and syntax-tree fixtures for
// validator tests.
package testutil

import (
	"github.com/roach88/relscope/internal/catalog"
	"github.com/roach88/relscope/internal/rowtype"
	"github.com/roach88/relscope/internal/sqlast"
	"github.com/roach88/relscope/internal/sqltype"
)

// Col builds a non-nullable column field.
func Col(name string, kind sqltype.Kind) rowtype.Field {
	return rowtype.Field{Name: name, Type: sqltype.Of(kind)}
}

// NullCol builds a nullable column field.
func NullCol(name string, kind sqltype.Kind) rowtype.Field {
	f := Col(name, kind)
	f.Nullable = true
	return f
}

// EmpDeptCatalog returns the standard two-table fixture:
//
//	EMP(empno INT, ename VARCHAR NULL, deptno INT, sal INT, rowid BIGINT SYSTEM)
//	  ordered by empno
//	DEPT(deptno INT, dname VARCHAR NULL)
func EmpDeptCatalog() *catalog.Mem {
	return catalog.NewMem(nil).
		Add(&catalog.Table{
			Name: "EMP",
			Columns: []rowtype.Field{
				Col("empno", sqltype.KindInt),
				NullCol("ename", sqltype.KindVarchar),
				Col("deptno", sqltype.KindInt),
				Col("sal", sqltype.KindInt),
				{Name: "rowid", Type: sqltype.Of(sqltype.KindBigInt), System: true},
			},
			Ordering: []catalog.ColumnOrder{{Column: "empno"}},
		}).
		Add(&catalog.Table{
			Name: "DEPT",
			Columns: []rowtype.Field{
				Col("deptno", sqltype.KindInt),
				NullCol("dname", sqltype.KindVarchar),
			},
		})
}

// SelectStar builds SELECT <cols...> FROM <from> with plain column items.
func SelectStar(from sqlast.Node, cols ...string) *sqlast.Select {
	sel := &sqlast.Select{From: from}
	for _, c := range cols {
		sel.Items = append(sel.Items, sqlast.SelectItem{Expr: ColRef(c)})
	}
	return sel
}

// ColRef builds a column reference from "name" or "qual.name" shorthand.
func ColRef(s string) *sqlast.ColumnRef {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return &sqlast.ColumnRef{Qualifier: s[:i], Name: s[i+1:]}
		}
	}
	return &sqlast.ColumnRef{Name: s}
}

// Aliased wraps a table reference in an alias node.
func Aliased(name, table string) *sqlast.Alias {
	return &sqlast.Alias{Name: name, Input: &sqlast.TableRef{Name: table}}
}
