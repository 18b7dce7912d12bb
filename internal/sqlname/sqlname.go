// Package sqlname implements catalog identifier matching.
//
// Every name comparison in the validator goes through a Matcher owned by the
// catalog, so the case-sensitivity policy is decided in exactly one place.
//
// Identifiers are NFC-normalized before comparison. Source text can contain
// the same identifier in composed and decomposed Unicode forms; normalizing
// at the matching boundary makes the two spellings equal without requiring
// the parser or catalog loaders to care.
package sqlname

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Matcher decides whether two identifiers denote the same catalog object.
type Matcher interface {
	// Match reports whether a and b are the same identifier under this
	// matcher's policy.
	Match(a, b string) bool

	// Canon returns the canonical spelling of an identifier: the form used
	// as a map key when indexing by name. Match(a, b) iff Canon(a) == Canon(b).
	Canon(s string) string
}

// caseInsensitive matches identifiers ignoring case, the default policy for
// unquoted SQL identifiers.
type caseInsensitive struct{}

// CaseInsensitive returns the default matcher: NFC normalization followed by
// Unicode case folding.
func CaseInsensitive() Matcher { return caseInsensitive{} }

func (caseInsensitive) Match(a, b string) bool {
	return caseInsensitive{}.Canon(a) == caseInsensitive{}.Canon(b)
}

func (caseInsensitive) Canon(s string) string {
	// A Caser is stateful and must not be shared across goroutines; Fold is
	// cheap to construct.
	return cases.Fold().String(norm.NFC.String(s))
}

// caseSensitive matches identifiers exactly, as for quoted identifiers.
type caseSensitive struct{}

// CaseSensitive returns a matcher that compares identifiers byte-for-byte
// after NFC normalization.
func CaseSensitive() Matcher { return caseSensitive{} }

func (caseSensitive) Match(a, b string) bool {
	return norm.NFC.String(a) == norm.NFC.String(b)
}

func (caseSensitive) Canon(s string) string {
	return norm.NFC.String(s)
}
