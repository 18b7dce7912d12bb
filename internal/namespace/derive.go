package namespace

import (
	"fmt"
	"strings"

	"github.com/roach88/relscope/internal/rowtype"
	"github.com/roach88/relscope/internal/sqlast"
	"github.com/roach88/relscope/internal/sqltype"
)

// derive computes the namespace's row type. One dispatch point for the whole
// closed kind set; called exactly once per namespace through rowTypeRec.
func (ns *Namespace) derive(visited map[*Namespace]bool) (*rowtype.RowType, error) {
	switch ns.kind {
	case KindTable:
		return ns.table.RowType(), nil

	case KindField:
		return ns.deriveField(visited)

	case KindSelect:
		return ns.deriveSelect(visited)

	case KindSetop:
		return ns.deriveSetop(visited)

	case KindJoin:
		return ns.deriveJoin(visited)

	case KindParameter:
		return rowtype.FromFields([]rowtype.Field{{
			Name:     fmt.Sprintf("PARAM$%d", ns.param.Ordinal),
			Type:     sqltype.Of(sqltype.KindAny),
			Nullable: true,
		}}), nil

	case KindUnnest:
		name := "EXPR$0"
		if col, ok := ns.unnest.Expr.(*sqlast.ColumnRef); ok {
			name = col.Name
		}
		return rowtype.FromFields([]rowtype.Field{{
			Name:     name,
			Type:     sqltype.Of(sqltype.KindAny),
			Nullable: true,
		}}), nil

	case KindOther:
		// Structural namespaces normally have their row type installed via
		// SetRowType; deriving one without an override yields the empty row.
		return rowtype.FromFields(nil), nil

	case KindAliasDecoration:
		return ns.deriveAlias(visited)

	case KindContextDecoration:
		rt, err := ns.inner.rowTypeRec(visited)
		if err != nil {
			return nil, withContext(err, ns.contextLabel)
		}
		return rt, nil

	default:
		return nil, ns.reg.newInternalError(CodeUnsupportedCapability, ns.node,
			"no derivation rule for kind %s", ns.kind)
	}
}

// deriveField extracts the single named field from the parent namespace,
// giving a dotted reference its nested scope.
func (ns *Namespace) deriveField(visited map[*Namespace]bool) (*rowtype.RowType, error) {
	parentType, err := ns.parent.rowTypeRec(visited)
	if err != nil {
		return nil, err
	}
	i := parentType.Index(ns.fieldName, ns.reg.matcher)
	if i < 0 {
		return nil, ns.reg.newError(CodeFieldNotFound, ns.node,
			"column %q not found in %s", ns.fieldName, sqlast.NodeString(ns.parent.node))
	}
	return rowtype.FromFields([]rowtype.Field{parentType.Field(i)}), nil
}

// deriveSelect builds one output field per projection item.
//
// Output naming: an explicit alias wins; a plain column reference contributes
// its trailing identifier segment; anything else gets the positional default
// EXPR$<position> (zero-based). Inferred duplicates are allowed - SELECT
// expansion of two sources can legally repeat a name - but duplicate
// explicit aliases are ambiguous and rejected.
func (ns *Namespace) deriveSelect(visited map[*Namespace]bool) (*rowtype.RowType, error) {
	if ns.from != nil {
		if _, err := ns.from.rowTypeRec(visited); err != nil {
			return nil, err
		}
	}

	var b rowtype.Builder
	seenAlias := map[string]bool{}
	for i, item := range ns.sel.Items {
		name := item.Alias
		if name != "" {
			canon := ns.reg.matcher.Canon(name)
			if seenAlias[canon] {
				return nil, ns.reg.newError(CodeDuplicateColumn, ns.node,
					"duplicate column alias %q", name)
			}
			seenAlias[canon] = true
		} else if col, ok := item.Expr.(*sqlast.ColumnRef); ok {
			name = col.Name
		} else {
			name = fmt.Sprintf("EXPR$%d", i)
		}

		typ, nullable, err := ns.inferExpr(item.Expr, visited)
		if err != nil {
			return nil, err
		}
		b.Add(rowtype.Field{Name: name, Type: typ, Nullable: nullable})
	}
	return b.Build(), nil
}

// deriveSetop reconciles operand row types column-wise: the first operand's
// names, each type widened to the least-restrictive common type across all
// operands, nullable if any operand's column is nullable.
func (ns *Namespace) deriveSetop(visited map[*Namespace]bool) (*rowtype.RowType, error) {
	first, err := ns.operands[0].rowTypeRec(visited)
	if err != nil {
		return nil, err
	}
	fields := first.FieldList()

	for _, operand := range ns.operands[1:] {
		rt, err := operand.rowTypeRec(visited)
		if err != nil {
			return nil, err
		}
		if rt.Len() != len(fields) {
			return nil, ns.reg.newError(CodeTypeMismatch, ns.node,
				"%s operands have different column counts: %d vs %d",
				ns.setop.Op, len(fields), rt.Len())
		}
		for i := range fields {
			other := rt.Field(i)
			common, ok := sqltype.Common(fields[i].Type, other.Type)
			if !ok {
				return nil, ns.reg.newError(CodeTypeMismatch, ns.node,
					"no common type for column %d of %s: %s vs %s",
					i+1, ns.setop.Op, fields[i].Type, other.Type)
			}
			fields[i].Type = common
			fields[i].Nullable = fields[i].Nullable || other.Nullable
		}
	}
	return rowtype.FromFields(fields), nil
}

// deriveJoin concatenates the two sides, left then right. Name collisions
// are preserved: the colliding fields stay addressable only through
// qualified resolution, never through the flat combined name.
func (ns *Namespace) deriveJoin(visited map[*Namespace]bool) (*rowtype.RowType, error) {
	leftType, err := ns.left.rowTypeRec(visited)
	if err != nil {
		return nil, err
	}
	rightType, err := ns.right.rowTypeRec(visited)
	if err != nil {
		return nil, err
	}
	return leftType.Concat(rightType), nil
}

// deriveAlias renames the wrapped namespace's output columns positionally
// and records the outer-to-inner name mapping that Translate consults.
func (ns *Namespace) deriveAlias(visited map[*Namespace]bool) (*rowtype.RowType, error) {
	innerType, err := ns.inner.rowTypeRec(visited)
	if err != nil {
		return nil, err
	}
	if len(ns.aliasColumns) == 0 {
		return innerType, nil
	}
	if len(ns.aliasColumns) != innerType.Len() {
		return nil, ns.reg.newError(CodeTypeMismatch, ns.node,
			"alias %s declares %d columns but input produces %d",
			ns.aliasName, len(ns.aliasColumns), innerType.Len())
	}

	fields := innerType.FieldList()
	renames := make([]rename, 0, len(fields))
	for i := range fields {
		renames = append(renames, rename{outer: ns.aliasColumns[i], inner: fields[i].Name})
		fields[i].Name = ns.aliasColumns[i]
	}

	ns.mu.Lock()
	ns.renames = renames
	ns.mu.Unlock()
	return rowtype.FromFields(fields), nil
}

// lookupSource finds the child namespace serving as the relation named qual:
// a join side, an aliased FROM item, or a WITH alias. Field namespaces are
// never sources. Unnamed children (nested joins) are searched recursively.
// Returns nil when absent; outward walking is the caller's job.
func (ns *Namespace) lookupSource(qual string) *Namespace {
	if ns.inner != nil {
		return ns.inner.lookupSource(qual)
	}
	ns.mu.Lock()
	entries := make([]childEntry, len(ns.children))
	copy(entries, ns.children)
	ns.mu.Unlock()

	for _, c := range entries {
		if c.ns.kind == KindField {
			continue
		}
		if c.name != "" && ns.reg.matcher.Match(c.name, qual) {
			return c.ns
		}
	}
	for _, c := range entries {
		if c.name == "" {
			if found := c.ns.lookupSource(qual); found != nil {
				return found
			}
		}
	}
	return nil
}

// resolveColumn resolves a column reference in this namespace's scope.
//
// Qualified references bind to the named source; unqualified references
// search the scope's own row surface. A lookup that fails locally walks
// outward through enclosing scopes; only when the outermost scope misses is
// the reference an error. An unqualified name matching several columns of
// the local surface is ambiguous and never silently resolved outward.
func (ns *Namespace) resolveColumn(qual, name string, visited map[*Namespace]bool) (rowtype.Field, error) {
	if qual != "" {
		for scope := ns; scope != nil; scope = scope.scopeParent {
			src := scope.lookupSource(qual)
			if src == nil {
				continue
			}
			rt, err := src.rowTypeRec(visited)
			if err != nil {
				return rowtype.Field{}, err
			}
			if n := rt.Count(name, ns.reg.matcher); n > 1 {
				return rowtype.Field{}, ns.reg.newError(CodeDuplicateColumn, ns.node,
					"column %q is ambiguous in %s", name, qual)
			}
			if i := rt.Index(name, ns.reg.matcher); i >= 0 {
				return rt.Field(i), nil
			}
			return rowtype.Field{}, ns.reg.newError(CodeFieldNotFound, ns.node,
				"column %q not found in %s", name, qual)
		}
		return rowtype.Field{}, ns.reg.newError(CodeFieldNotFound, ns.node,
			"unknown relation %q", qual)
	}

	for scope := ns; scope != nil; scope = scope.scopeParent {
		surface := scope.scopeSurface()
		if surface == nil {
			continue
		}
		rt, err := surface.rowTypeRec(visited)
		if err != nil {
			return rowtype.Field{}, err
		}
		if n := rt.Count(name, ns.reg.matcher); n > 1 {
			return rowtype.Field{}, ns.reg.newError(CodeDuplicateColumn, ns.node,
				"column %q is ambiguous", name)
		}
		if i := rt.Index(name, ns.reg.matcher); i >= 0 {
			return rt.Field(i), nil
		}
	}
	return rowtype.Field{}, ns.reg.newError(CodeFieldNotFound, ns.node,
		"column %q not found", name)
}

// scopeSurface returns the namespace whose row type unqualified references
// resolve against: a select's FROM namespace, a join itself. Scopes with no
// row surface (a select with no FROM) return nil and resolution continues
// outward.
func (ns *Namespace) scopeSurface() *Namespace {
	switch ns.kind {
	case KindSelect:
		return ns.from
	case KindJoin:
		return ns
	default:
		return nil
	}
}

// inferExpr computes the type and nullability of an expression resolved in
// this namespace's scope.
//
// The function catalog here is intentionally small: the validator needs
// result types for projection, not an evaluator. Unknown functions type as
// ANY so user-defined functions do not fail projection typing.
func (ns *Namespace) inferExpr(e sqlast.Expr, visited map[*Namespace]bool) (sqltype.Type, bool, error) {
	switch x := e.(type) {
	case *sqlast.ColumnRef:
		f, err := ns.resolveColumn(x.Qualifier, x.Name, visited)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		return f.Type, f.Nullable, nil

	case *sqlast.Literal:
		// A NULL literal types as ANY, the only nullable literal.
		return x.Type, x.Type.Kind == sqltype.KindAny, nil

	case *sqlast.ParamExpr:
		return sqltype.Of(sqltype.KindAny), true, nil

	case *sqlast.Call:
		return ns.inferCall(x, visited)

	default:
		return sqltype.Of(sqltype.KindAny), true, nil
	}
}

func (ns *Namespace) inferCall(call *sqlast.Call, visited map[*Namespace]bool) (sqltype.Type, bool, error) {
	argTypes := make([]sqltype.Type, len(call.Args))
	anyNullable := false
	for i, arg := range call.Args {
		t, nullable, err := ns.inferExpr(arg, visited)
		if err != nil {
			return sqltype.Type{}, false, err
		}
		argTypes[i] = t
		anyNullable = anyNullable || nullable
	}

	switch strings.ToUpper(call.Fn) {
	case "=", "<>", "<", "<=", ">", ">=", "AND", "OR", "NOT", "LIKE", "IS NULL", "IS NOT NULL":
		return sqltype.Of(sqltype.KindBoolean), anyNullable, nil

	case "+", "-", "*", "/":
		if len(argTypes) == 1 {
			return argTypes[0], anyNullable, nil
		}
		out := argTypes[0]
		for _, t := range argTypes[1:] {
			common, ok := sqltype.Common(out, t)
			if !ok {
				return sqltype.Type{}, false, ns.reg.newError(CodeTypeMismatch, ns.node,
					"cannot apply %s to %s and %s", call.Fn, out, t)
			}
			out = common
		}
		return out, anyNullable, nil

	case "UPPER", "LOWER", "TRIM", "SUBSTRING", "CONCAT":
		return sqltype.Of(sqltype.KindVarchar), anyNullable, nil

	case "CEIL", "FLOOR", "ABS", "TRUNC", "CAST":
		if len(argTypes) > 0 {
			return argTypes[0], anyNullable, nil
		}
		return sqltype.Of(sqltype.KindAny), true, nil

	case "COUNT":
		return sqltype.Of(sqltype.KindBigInt), false, nil

	case "SUM", "MIN", "MAX", "AVG":
		if len(argTypes) > 0 {
			return argTypes[0], true, nil
		}
		return sqltype.Of(sqltype.KindAny), true, nil

	default:
		return sqltype.Of(sqltype.KindAny), true, nil
	}
}
