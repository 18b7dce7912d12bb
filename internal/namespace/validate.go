package namespace

import (
	"github.com/roach88/relscope/internal/sqlast"
	"github.com/roach88/relscope/internal/sqltype"
)

// Validate validates this namespace: children first, then clause checks,
// then row-type derivation. Idempotent - a second call on an already
// validated namespace is a no-op. Re-entering a namespace that is mid
// validation is a cyclic reference and fails instead of looping.
func (ns *Namespace) Validate() error {
	ns.mu.Lock()
	if ns.validated {
		ns.mu.Unlock()
		return nil
	}
	if ns.validating {
		ns.mu.Unlock()
		return ns.reg.newError(CodeCyclicReference, ns.node,
			"validation of %s depends on itself", sqlast.NodeString(ns.node))
	}
	ns.validating = true
	ns.mu.Unlock()

	err := ns.validateBody()

	ns.mu.Lock()
	ns.validating = false
	if err == nil {
		ns.validated = true
	}
	ns.mu.Unlock()
	return err
}

func (ns *Namespace) validateBody() error {
	switch ns.kind {
	case KindContextDecoration:
		if err := ns.inner.Validate(); err != nil {
			return withContext(err, ns.contextLabel)
		}
		_, err := ns.RowType()
		if err != nil {
			return withContext(err, ns.contextLabel)
		}
		return nil

	case KindAliasDecoration:
		if err := ns.inner.Validate(); err != nil {
			return err
		}
		_, err := ns.RowType()
		return err

	case KindSelect:
		return ns.validateSelect()

	case KindJoin:
		return ns.validateJoin()

	case KindSetop:
		for _, operand := range ns.operands {
			if err := operand.Validate(); err != nil {
				return err
			}
		}
		_, err := ns.RowType()
		return err

	default:
		// Table, Field, Parameter, Unnest, Other: children (if any) first,
		// then derivation.
		for _, c := range ns.childSnapshot() {
			if err := c.ns.Validate(); err != nil {
				return err
			}
		}
		_, err := ns.RowType()
		return err
	}
}

func (ns *Namespace) childSnapshot() []childEntry {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	out := make([]childEntry, len(ns.children))
	copy(out, ns.children)
	return out
}

// validateSelect validates children, type-checks the filter and ordering
// clauses, and derives the projection row type.
func (ns *Namespace) validateSelect() error {
	for _, c := range ns.childSnapshot() {
		if err := c.ns.Validate(); err != nil {
			return err
		}
	}

	visited := make(map[*Namespace]bool)

	if ns.sel.Where != nil {
		t, _, err := ns.inferExpr(ns.sel.Where, visited)
		if err != nil {
			return err
		}
		if t.Kind != sqltype.KindBoolean && t.Kind != sqltype.KindAny {
			return ns.reg.newError(CodeTypeMismatch, ns.node,
				"WHERE clause must be BOOLEAN, got %s", t)
		}
	}

	for _, g := range ns.sel.GroupBy {
		if _, _, err := ns.inferExpr(g, visited); err != nil {
			return err
		}
	}

	// The projection row type must exist before ORDER BY resolution: output
	// aliases are visible to ordering keys.
	rt, err := ns.RowType()
	if err != nil {
		return err
	}

	for _, ord := range ns.sel.OrderBy {
		_, _, err := ns.inferExpr(ord.Expr, visited)
		if err == nil {
			continue
		}
		// Fall back to output names: ORDER BY salary is legal when salary is
		// a projection alias even if no source column carries the name.
		col, ok := ord.Expr.(*sqlast.ColumnRef)
		if ok && col.Qualifier == "" && rt.Index(col.Name, ns.reg.matcher) >= 0 {
			continue
		}
		return err
	}

	return nil
}

// validateJoin validates both sides, applies outer-join nullability to the
// appropriate operand row types, type-checks the ON condition, and derives
// the concatenated row type.
//
// Nullability runs between child validation and this join's own derivation,
// so the concatenation observes the forced-nullable child row types while
// row types handed out before this point keep their snapshots.
func (ns *Namespace) validateJoin() error {
	if err := ns.left.Validate(); err != nil {
		return err
	}
	if err := ns.right.Validate(); err != nil {
		return err
	}

	switch ns.join.Kind {
	case sqlast.LeftOuterJoin:
		if err := ns.right.MakeNullable(); err != nil {
			return err
		}
	case sqlast.RightOuterJoin:
		if err := ns.left.MakeNullable(); err != nil {
			return err
		}
	case sqlast.FullOuterJoin:
		if err := ns.left.MakeNullable(); err != nil {
			return err
		}
		if err := ns.right.MakeNullable(); err != nil {
			return err
		}
	}

	if ns.join.On != nil {
		t, _, err := ns.inferExpr(ns.join.On, make(map[*Namespace]bool))
		if err != nil {
			return err
		}
		if t.Kind != sqltype.KindBoolean && t.Kind != sqltype.KindAny {
			return ns.reg.newError(CodeTypeMismatch, ns.node,
				"join condition must be BOOLEAN, got %s", t)
		}
	}

	_, err := ns.RowType()
	return err
}
