package catalog

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/relscope/internal/rowtype"
	"github.com/roach88/relscope/internal/sqlname"
	"github.com/roach88/relscope/internal/sqltype"
)

// CompileError is a catalog compilation failure with a source position.
type CompileError struct {
	Field   string    // dotted path of the offending field, e.g. "tables.EMP.columns"
	Message string    // human-readable description
	Pos     token.Pos // source position, if known
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileCUE parses a CUE value into a catalog. Uses the CUE SDK's Go API
// directly (not CLI subprocess).
//
// The value should be the catalog struct itself:
//
//	tables: {
//		EMP: {
//			columns: [
//				{name: "empno", type: "INT"},
//				{name: "ename", type: "VARCHAR", precision: 32, nullable: true},
//			]
//			ordering: [{column: "empno"}]
//		}
//	}
//	case_sensitive: false
func CompileCUE(v cue.Value) (*Mem, error) {
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("catalog value: %w", err)
	}

	matcher := sqlname.Matcher(sqlname.CaseInsensitive())
	csVal := v.LookupPath(cue.ParsePath("case_sensitive"))
	if csVal.Exists() {
		cs, err := csVal.Bool()
		if err != nil {
			return nil, &CompileError{Field: "case_sensitive", Message: "must be a bool", Pos: csVal.Pos()}
		}
		if cs {
			matcher = sqlname.CaseSensitive()
		}
	}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &CompileError{Field: "tables", Message: "tables is required", Pos: v.Pos()}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, &CompileError{Field: "tables", Message: err.Error(), Pos: tablesVal.Pos()}
	}

	cat := NewMem(matcher)
	count := 0
	for iter.Next() {
		name := iter.Selector().Unquoted()
		table, err := compileTable(name, iter.Value())
		if err != nil {
			return nil, err
		}
		cat.Add(table)
		count++
	}
	if count == 0 {
		return nil, &CompileError{Field: "tables", Message: "at least one table is required", Pos: tablesVal.Pos()}
	}
	return cat, nil
}

// CompileCUEString compiles CUE source text into a catalog.
func CompileCUEString(src string) (*Mem, error) {
	v := cuecontext.New().CompileString(src)
	return CompileCUE(v)
}

func compileTable(name string, v cue.Value) (*Table, error) {
	field := "tables." + name

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, &CompileError{Field: field, Message: "columns is required", Pos: v.Pos()}
	}
	colsIter, err := colsVal.List()
	if err != nil {
		return nil, &CompileError{Field: field + ".columns", Message: "must be a list", Pos: colsVal.Pos()}
	}

	table := &Table{Name: name}
	for i := 0; colsIter.Next(); i++ {
		col, err := compileColumn(fmt.Sprintf("%s.columns[%d]", field, i), colsIter.Value())
		if err != nil {
			return nil, err
		}
		table.Columns = append(table.Columns, col)
	}
	if len(table.Columns) == 0 {
		return nil, &CompileError{Field: field + ".columns", Message: "at least one column is required", Pos: colsVal.Pos()}
	}

	ordVal := v.LookupPath(cue.ParsePath("ordering"))
	if ordVal.Exists() {
		ordIter, err := ordVal.List()
		if err != nil {
			return nil, &CompileError{Field: field + ".ordering", Message: "must be a list", Pos: ordVal.Pos()}
		}
		for ordIter.Next() {
			ov := ordIter.Value()
			colName, err := ov.LookupPath(cue.ParsePath("column")).String()
			if err != nil {
				return nil, &CompileError{Field: field + ".ordering", Message: "column is required", Pos: ov.Pos()}
			}
			desc := false
			if dv := ov.LookupPath(cue.ParsePath("desc")); dv.Exists() {
				if desc, err = dv.Bool(); err != nil {
					return nil, &CompileError{Field: field + ".ordering", Message: "desc must be a bool", Pos: dv.Pos()}
				}
			}
			table.Ordering = append(table.Ordering, ColumnOrder{Column: colName, Desc: desc})
		}
	}

	return table, nil
}

func compileColumn(field string, v cue.Value) (rowtype.Field, error) {
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil || name == "" {
		return rowtype.Field{}, &CompileError{Field: field, Message: "name is required", Pos: v.Pos()}
	}

	typeName, err := v.LookupPath(cue.ParsePath("type")).String()
	if err != nil {
		return rowtype.Field{}, &CompileError{Field: field, Message: "type is required", Pos: v.Pos()}
	}
	kind, ok := sqltype.ParseKind(strings.ToUpper(typeName))
	if !ok {
		return rowtype.Field{}, &CompileError{Field: field, Message: fmt.Sprintf("unknown type %q", typeName), Pos: v.Pos()}
	}

	out := rowtype.Field{Name: name, Type: sqltype.Of(kind)}

	if pv := v.LookupPath(cue.ParsePath("precision")); pv.Exists() {
		p, err := pv.Int64()
		if err != nil {
			return rowtype.Field{}, &CompileError{Field: field, Message: "precision must be an int", Pos: pv.Pos()}
		}
		out.Type.Precision = int(p)
	}
	if nv := v.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
		if out.Nullable, err = nv.Bool(); err != nil {
			return rowtype.Field{}, &CompileError{Field: field, Message: "nullable must be a bool", Pos: nv.Pos()}
		}
	}
	if sv := v.LookupPath(cue.ParsePath("system")); sv.Exists() {
		if out.System, err = sv.Bool(); err != nil {
			return rowtype.Field{}, &CompileError{Field: field, Message: "system must be a bool", Pos: sv.Pos()}
		}
	}

	return out, nil
}
