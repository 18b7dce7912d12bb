// Package rowtype defines RowType, the ordered column schema produced by a
// namespace: a list of (name, type, nullability) fields.
//
// IMMUTABILITY:
//
// A RowType is never mutated after construction. Consumers that received a
// RowType keep an accurate snapshot forever; any schema change - most notably
// forcing nullability for the outer side of an outer join - produces a new
// RowType and leaves existing references untouched.
//
// Field names are not required to be unique. A join of two tables that share
// a column name yields both fields in order; resolving the shared name
// through the combined type is ambiguous by design and callers must qualify.
//
// System columns (e.g. a storage engine's hidden row identifier) carry a
// System flag and can be projected away with SansSystemColumns.
package rowtype
