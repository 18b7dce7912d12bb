package namespace

import (
	"github.com/roach88/relscope/internal/sqlast"
)

// MonotonicExprs returns the memoized list of expressions monotonic in this
// namespace's natural row order, deriving it on first access.
func (ns *Namespace) MonotonicExprs() ([]MonotonicExpr, error) {
	ns.mu.Lock()
	if ns.monotonicOK {
		out := ns.monotonic
		ns.mu.Unlock()
		return out, nil
	}
	ns.mu.Unlock()

	list, err := ns.deriveMonotonic()
	if err != nil {
		return nil, err
	}

	ns.mu.Lock()
	if !ns.monotonicOK {
		ns.monotonic = list
		ns.monotonicOK = true
	}
	list = ns.monotonic
	ns.mu.Unlock()
	return list, nil
}

// Monotonicity reports whether and how the named output column is sorted.
// NotMonotonic when the column is absent from the monotonic list.
func (ns *Namespace) Monotonicity(columnName string) (Direction, error) {
	list, err := ns.MonotonicExprs()
	if err != nil {
		return NotMonotonic, err
	}
	for _, m := range list {
		if col, ok := m.Expr.(*sqlast.ColumnRef); ok && ns.reg.matcher.Match(col.Name, columnName) {
			return m.Direction, nil
		}
	}
	return NotMonotonic, nil
}

// deriveMonotonic is the single dispatch point for monotonicity derivation.
func (ns *Namespace) deriveMonotonic() ([]MonotonicExpr, error) {
	switch ns.kind {
	case KindTable:
		// Seed from the leading key of the table's declared natural
		// ordering. Secondary keys are only ordered within groups of the
		// leading key, so they contribute nothing globally.
		if len(ns.table.Ordering) == 0 {
			return nil, nil
		}
		lead := ns.table.Ordering[0]
		dir := Increasing
		if lead.Desc {
			dir = Decreasing
		}
		return []MonotonicExpr{{Expr: &sqlast.ColumnRef{Name: lead.Column}, Direction: dir}}, nil

	case KindSelect:
		return ns.deriveSelectMonotonic()

	case KindSetop:
		return ns.agreedMonotonic(ns.operands)

	case KindJoin:
		return ns.agreedMonotonic([]*Namespace{ns.left, ns.right})

	case KindAliasDecoration:
		return ns.deriveAliasMonotonic()

	case KindContextDecoration:
		return ns.inner.MonotonicExprs()

	default:
		// Field, Parameter, Unnest, Other: no ordering facts.
		return nil, nil
	}
}

// deriveSelectMonotonic propagates monotonicity from the FROM namespace
// through pass-through and order-preserving projections, then applies an
// explicit ORDER BY, which establishes ordering regardless of the source.
func (ns *Namespace) deriveSelectMonotonic() ([]MonotonicExpr, error) {
	rt, err := ns.RowType()
	if err != nil {
		return nil, err
	}

	var fromList []MonotonicExpr
	if ns.from != nil {
		fromList, err = ns.from.MonotonicExprs()
		if err != nil {
			return nil, err
		}
	}

	grouped := len(ns.sel.GroupBy) > 0
	var out []MonotonicExpr
	for i, item := range ns.sel.Items {
		dir := exprDirection(item.Expr, fromList)
		if !dir.IsMonotonic() {
			continue
		}
		if grouped {
			// Grouping preserves order but collapses runs of equal keys.
			dir = dir.Unstrict()
		}
		out = append(out, MonotonicExpr{
			Expr:      &sqlast.ColumnRef{Name: rt.Field(i).Name},
			Direction: dir,
		})
	}

	if len(ns.sel.OrderBy) > 0 {
		// Only the leading key orders the whole result.
		lead := ns.sel.OrderBy[0]
		dir := Increasing
		if lead.Desc {
			dir = Decreasing
		}
		leadKey := sqlast.ExprString(lead.Expr)
		for i, item := range ns.sel.Items {
			match := sqlast.ExprString(item.Expr) == leadKey
			if !match {
				if col, ok := lead.Expr.(*sqlast.ColumnRef); ok && col.Qualifier == "" {
					match = ns.reg.matcher.Match(rt.Field(i).Name, col.Name)
				}
			}
			if match {
				out = upsertMonotonic(out, rt.Field(i).Name, dir, ns)
			}
		}
	}

	return out, nil
}

// exprDirection computes the direction of an expression given the source's
// monotonic list: a pass-through of a monotonic column keeps its direction,
// an order-preserving function keeps it weakened, unary minus reverses it,
// and a literal is constant.
func exprDirection(e sqlast.Expr, fromList []MonotonicExpr) Direction {
	switch x := e.(type) {
	case *sqlast.ColumnRef:
		// Source lists carry unqualified column references; a qualified
		// pass-through still matches on the bare name.
		return monotonicDirOf(fromList, &sqlast.ColumnRef{Name: x.Name})

	case *sqlast.Literal:
		return Constant

	case *sqlast.Call:
		if len(x.Args) == 0 {
			return NotMonotonic
		}
		arg := exprDirection(x.Args[0], fromList)
		if !arg.IsMonotonic() {
			return NotMonotonic
		}
		if x.Fn == "-" && len(x.Args) == 1 {
			return arg.Reverse()
		}
		if monotonicPreservingFns[x.Fn] {
			return arg.Unstrict()
		}
		return NotMonotonic

	default:
		return NotMonotonic
	}
}

// agreedMonotonic returns the expressions every operand reports with the
// same direction; anything short of full agreement is conservatively
// dropped.
func (ns *Namespace) agreedMonotonic(operands []*Namespace) ([]MonotonicExpr, error) {
	if len(operands) == 0 {
		return nil, nil
	}
	first, err := operands[0].MonotonicExprs()
	if err != nil {
		return nil, err
	}
	var out []MonotonicExpr
	for _, m := range first {
		agreed := true
		for _, operand := range operands[1:] {
			list, err := operand.MonotonicExprs()
			if err != nil {
				return nil, err
			}
			if monotonicDirOf(list, m.Expr) != m.Direction {
				agreed = false
				break
			}
		}
		if agreed {
			out = append(out, m)
		}
	}
	return out, nil
}

// deriveAliasMonotonic rewrites the wrapped namespace's monotonic columns to
// their outer (renamed) spellings.
func (ns *Namespace) deriveAliasMonotonic() ([]MonotonicExpr, error) {
	innerList, err := ns.inner.MonotonicExprs()
	if err != nil {
		return nil, err
	}
	// Renames exist only after derivation.
	if _, err := ns.RowType(); err != nil {
		return nil, err
	}
	ns.mu.Lock()
	renames := ns.renames
	ns.mu.Unlock()
	if len(renames) == 0 {
		return innerList, nil
	}

	out := make([]MonotonicExpr, 0, len(innerList))
	for _, m := range innerList {
		col, ok := m.Expr.(*sqlast.ColumnRef)
		if !ok {
			out = append(out, m)
			continue
		}
		renamed := m
		for _, rn := range renames {
			if ns.reg.matcher.Match(rn.inner, col.Name) {
				renamed.Expr = &sqlast.ColumnRef{Name: rn.outer}
				break
			}
		}
		out = append(out, renamed)
	}
	return out, nil
}

func upsertMonotonic(list []MonotonicExpr, column string, dir Direction, ns *Namespace) []MonotonicExpr {
	for i, m := range list {
		if col, ok := m.Expr.(*sqlast.ColumnRef); ok && ns.reg.matcher.Match(col.Name, column) {
			list[i].Direction = dir
			return list
		}
	}
	return append(list, MonotonicExpr{Expr: &sqlast.ColumnRef{Name: column}, Direction: dir})
}
