package namespace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/relscope/internal/sqlast"
)

// Code categorizes validation errors.
type Code string

const (
	// CodeTableNotFound indicates a referenced table is absent from the catalog.
	CodeTableNotFound Code = "TABLE_NOT_FOUND"

	// CodeFieldNotFound indicates a name did not resolve to any column.
	CodeFieldNotFound Code = "FIELD_NOT_FOUND"

	// CodeTypeMismatch indicates incompatible types: set-operation operands
	// with no common type or differing arity, or a non-boolean predicate.
	CodeTypeMismatch Code = "TYPE_MISMATCH"

	// CodeDuplicateColumn indicates ambiguous column naming: duplicate
	// explicit aliases, or an unqualified reference matching several columns.
	CodeDuplicateColumn Code = "DUPLICATE_COLUMN"

	// CodeCyclicReference indicates a scope whose validation depends on
	// itself, e.g. a recursive WITH alias.
	CodeCyclicReference Code = "CYCLIC_REFERENCE"

	// CodeUnsupportedCapability indicates a consumer asked Unwrap for a kind
	// no decoration layer provides. Internal: a caller bug, never retried.
	CodeUnsupportedCapability Code = "UNSUPPORTED_CAPABILITY"

	// CodeStaleOverride indicates SetRowType after derivation already
	// happened. Internal: a caller bug, never retried.
	CodeStaleOverride Code = "STALE_OVERRIDE"
)

// ValidationError is an error detected while validating a namespace tree.
//
// Every error carries the offending syntax node so the presentation layer
// can map it back to source position, and the registry session token for log
// correlation. Internal errors indicate defects in calling code and must not
// be caught and retried.
type ValidationError struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Node is the offending syntax node, when known.
	Node sqlast.Node

	// Session is the registry's session token.
	Session string

	// Context lists decoration context labels, outermost first.
	Context []string

	// Internal marks programming errors (contract violations) as opposed to
	// user-facing validation failures.
	Internal bool
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Node != nil {
		fmt.Fprintf(&b, " (at %s)", sqlast.NodeString(e.Node))
	}
	if len(e.Context) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Context, " > "))
	}
	return b.String()
}

// withContext returns a copy of err with label prepended to its context
// chain if err is a ValidationError; other errors, and an empty label, pass
// through unchanged.
func withContext(err error, label string) error {
	if label == "" {
		return err
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	out := *ve
	out.Context = append([]string{label}, ve.Context...)
	return &out
}

func errCode(err error, code Code) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// IsTableNotFound reports whether err is a table-resolution failure.
func IsTableNotFound(err error) bool { return errCode(err, CodeTableNotFound) }

// IsFieldNotFound reports whether err is a name-resolution failure.
func IsFieldNotFound(err error) bool { return errCode(err, CodeFieldNotFound) }

// IsTypeMismatch reports whether err is a type-compatibility failure.
func IsTypeMismatch(err error) bool { return errCode(err, CodeTypeMismatch) }

// IsDuplicateColumn reports whether err is an ambiguous-naming failure.
func IsDuplicateColumn(err error) bool { return errCode(err, CodeDuplicateColumn) }

// IsCyclicReference reports whether err is a cyclic-scope failure.
func IsCyclicReference(err error) bool { return errCode(err, CodeCyclicReference) }

// IsInternal reports whether err is a programming error rather than a
// user-facing validation failure.
func IsInternal(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Internal
}

func (r *Registry) newError(code Code, node sqlast.Node, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Node:    node,
		Session: r.session,
	}
}

func (r *Registry) newInternalError(code Code, node sqlast.Node, format string, args ...any) *ValidationError {
	e := r.newError(code, node, format, args...)
	e.Internal = true
	return e
}
