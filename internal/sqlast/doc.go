// Package sqlast defines the syntax-tree node set consumed by the validator.
//
// The parser that would produce these nodes is out of scope; trees arrive
// either hand-built (tests) or deserialized from a YAML description (CLI).
//
// SEALED INTERFACES:
//
// Node and Expr are sealed interfaces using the marker method pattern. Only
// types in this package implement them, which keeps type switches in the
// validator exhaustive:
//
//	switch n := node.(type) {
//	case *TableRef:
//	case *Select:
//	case *Setop:
//	case *Join:
//	case *Alias:
//	case *Unnest:
//	case *ParamRef:
//	}
//
// IDENTITY:
//
// Nodes are always handled by pointer. Pointer identity is the node's
// identity: the namespace registry keys on it, so a tree must not share node
// values between positions.
package sqlast
