package sqltype

import "fmt"

// Kind identifies a column data type.
//
// This is a sealed enumeration - the validator type-switches over kinds and
// relies on the set being closed.
type Kind int

const (
	// KindUnknown is the zero value. It is never produced by a catalog and
	// never unifies with anything; seeing it indicates a bug upstream.
	KindUnknown Kind = iota

	// KindAny is the type of NULL literals and untyped parameters.
	// It unifies with every other kind.
	KindAny

	KindBoolean
	KindInt
	KindBigInt
	KindDecimal
	KindFloat
	KindVarchar
	KindDate
	KindTimestamp
)

// kindNames maps kinds to their catalog spellings.
var kindNames = map[Kind]string{
	KindUnknown:   "UNKNOWN",
	KindAny:       "ANY",
	KindBoolean:   "BOOLEAN",
	KindInt:       "INT",
	KindBigInt:    "BIGINT",
	KindDecimal:   "DECIMAL",
	KindFloat:     "FLOAT",
	KindVarchar:   "VARCHAR",
	KindDate:      "DATE",
	KindTimestamp: "TIMESTAMP",
}

// String returns the catalog spelling of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a catalog spelling back to a Kind.
// Returns KindUnknown and false for unrecognized spellings.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name && k != KindUnknown {
			return k, true
		}
	}
	// Common aliases seen in catalog files and SQLite introspection.
	switch name {
	case "INTEGER":
		return KindInt, true
	case "TEXT", "STRING":
		return KindVarchar, true
	case "REAL", "DOUBLE":
		return KindFloat, true
	case "NUMERIC":
		return KindDecimal, true
	case "BOOL":
		return KindBoolean, true
	case "DATETIME":
		return KindTimestamp, true
	}
	return KindUnknown, false
}

// Type is a column data type: a kind plus an optional precision.
//
// Precision is carried verbatim (e.g. VARCHAR(32) has Precision 32); zero
// means unspecified. Precision participates in equality but not in widening -
// the common type of VARCHAR(10) and VARCHAR(20) is VARCHAR(20).
type Type struct {
	Kind      Kind
	Precision int
}

// Of returns a Type of the given kind with unspecified precision.
func Of(k Kind) Type {
	return Type{Kind: k}
}

// String renders the type in catalog notation, e.g. "VARCHAR(32)" or "INT".
func (t Type) String() string {
	if t.Precision > 0 {
		return fmt.Sprintf("%s(%d)", t.Kind, t.Precision)
	}
	return t.Kind.String()
}

// numericRank orders the numeric widening ladder. Non-numeric kinds rank 0.
func numericRank(k Kind) int {
	switch k {
	case KindInt:
		return 1
	case KindBigInt:
		return 2
	case KindDecimal:
		return 3
	case KindFloat:
		return 4
	default:
		return 0
	}
}

// Common returns the least-restrictive common type of a and b, or false if
// no common type exists.
//
// Rules, in order:
//  1. Any unifies with anything (the other side wins).
//  2. Identical kinds unify; the larger precision wins.
//  3. Two numeric kinds widen to the higher rung of the numeric ladder.
//  4. Everything else has no common type.
func Common(a, b Type) (Type, bool) {
	if a.Kind == KindUnknown || b.Kind == KindUnknown {
		return Type{}, false
	}
	if a.Kind == KindAny {
		return b, true
	}
	if b.Kind == KindAny {
		return a, true
	}
	if a.Kind == b.Kind {
		out := a
		if b.Precision > out.Precision {
			out.Precision = b.Precision
		}
		return out, true
	}
	ra, rb := numericRank(a.Kind), numericRank(b.Kind)
	if ra > 0 && rb > 0 {
		if ra >= rb {
			return Type{Kind: a.Kind}, true
		}
		return Type{Kind: b.Kind}, true
	}
	return Type{}, false
}
