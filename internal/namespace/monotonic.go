package namespace

import "github.com/roach88/relscope/internal/sqlast"

// Direction describes how an expression's value moves across the natural row
// order of a namespace.
type Direction int

const (
	NotMonotonic Direction = iota
	Constant
	Increasing
	StrictlyIncreasing
	Decreasing
	StrictlyDecreasing
)

// String returns a stable lower-snake spelling used in CLI output.
func (d Direction) String() string {
	switch d {
	case Constant:
		return "constant"
	case Increasing:
		return "increasing"
	case StrictlyIncreasing:
		return "strictly_increasing"
	case Decreasing:
		return "decreasing"
	case StrictlyDecreasing:
		return "strictly_decreasing"
	default:
		return "not_monotonic"
	}
}

// Reverse flips increasing and decreasing, preserving strictness. Constant
// and NotMonotonic reverse to themselves.
func (d Direction) Reverse() Direction {
	switch d {
	case Increasing:
		return Decreasing
	case StrictlyIncreasing:
		return StrictlyDecreasing
	case Decreasing:
		return Increasing
	case StrictlyDecreasing:
		return StrictlyIncreasing
	default:
		return d
	}
}

// Unstrict weakens a strict direction to its non-strict form. Derivations
// that can repeat values (grouping, widening casts) apply it.
func (d Direction) Unstrict() Direction {
	switch d {
	case StrictlyIncreasing:
		return Increasing
	case StrictlyDecreasing:
		return Decreasing
	default:
		return d
	}
}

// IsMonotonic reports whether the direction carries any ordering fact.
func (d Direction) IsMonotonic() bool {
	return d != NotMonotonic
}

// MonotonicExpr pairs an expression with its direction in a namespace's
// natural row order.
type MonotonicExpr struct {
	Expr      sqlast.Expr
	Direction Direction
}

// monotonicDirOf returns the direction of an expression in a memoized list,
// comparing by the expression's stable rendering. NotMonotonic if absent.
func monotonicDirOf(list []MonotonicExpr, expr sqlast.Expr) Direction {
	key := sqlast.ExprString(expr)
	for _, m := range list {
		if sqlast.ExprString(m.Expr) == key {
			return m.Direction
		}
	}
	return NotMonotonic
}

// monotonicFnClass classifies calls for monotonicity propagation: functions
// that preserve their argument's order (possibly collapsing equal values) and
// the unary negation that reverses it.
var monotonicPreservingFns = map[string]bool{
	"CEIL":  true,
	"FLOOR": true,
	"TRUNC": true,
	"CAST":  true,
}
