// Package sqltype defines the closed set of column data types understood by
// the validator, together with the widening rules used when set operations
// reconcile operand columns.
//
// The type system is deliberately small. The validator never evaluates
// values; it only needs enough structure to answer two questions:
//
//  1. Are these two column types the same?
//  2. What is the least-restrictive common type of these column types?
//
// WIDENING LATTICE:
//
// Numeric kinds widen along a single ladder:
//
//	Int < BigInt < Decimal < Float
//
// Identical kinds unify with themselves. Any unifies with everything (it is
// the type of NULL literals and untyped parameters). All other pairs have no
// common type, which surfaces as a type mismatch during set-operation
// validation.
package sqltype
