// Package namespace implements the scoping model used during semantic
// validation of a query: one namespace per scope-introducing syntax node,
// exposing the row type that scope produces, name resolution against the
// scope and its ancestors, and auxiliary facts (column monotonicity, forced
// nullability) consumed by later compilation phases.
//
// ARCHITECTURE:
//
// Closed Variant Set:
// A namespace is a single struct with a Kind tag rather than an interface
// hierarchy. Row-type derivation, name lookup, and monotonicity each dispatch
// through one type switch over the closed kind set, so adding a kind is a
// compile-visible change at every dispatch point.
//
// Registry as Arena:
// The Registry exclusively owns every namespace. Parent, child, and scope
// links between namespaces are plain references into the arena, never
// ownership; the whole graph dies with the registry. The registry's
// node-to-namespace map is populated during the single top-down registration
// walk and is read-only afterward. Two syntax nodes may map to the same
// namespace (a WITH alias referenced from several places).
//
// Lazy Memoized Row Types:
// Each namespace runs a small state machine: Unevaluated -> Evaluated via
// derivation, or Unevaluated -> Overridden -> Evaluated via an explicit
// SetRowType. Derivation happens at most once; the first completed derivation
// wins under the namespace's lock, so two call paths racing to the same
// namespace both observe one finished RowType and never a partial one.
// Overriding after evaluation is a caller bug and is rejected, because
// earlier consumers may already hold the previous row type.
//
// Decoration:
// Validation logic can wrap a namespace in another namespace (alias column
// renames, error context) without consumers noticing. Unwrap and IsWrapperFor
// tunnel through any number of decoration layers to recover the concrete
// variant or a decoration capability; consumers must never type-test a
// namespace reference directly.
//
// Validation Order:
// Validate is idempotent and child-first: children finish before the parent
// derives, because parents read child row types. A namespace re-entered while
// mid-validation is a cyclic reference and fails rather than looping. The
// driver also applies outer-join nullability between validating a join's
// children and deriving the join's own row type.
package namespace
