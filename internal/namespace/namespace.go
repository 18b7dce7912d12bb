package namespace

import (
	"sync"

	"github.com/roach88/relscope/internal/catalog"
	"github.com/roach88/relscope/internal/rowtype"
	"github.com/roach88/relscope/internal/sqlast"
)

// Kind identifies what a namespace (or decoration layer) can be viewed as.
//
// The set is closed: the base variants cover every scope-introducing
// construct, and the decoration kinds are the declared auxiliary
// capabilities recoverable through Unwrap.
type Kind int

const (
	// KindTable is a base table reference; row type is the catalog schema.
	KindTable Kind = iota

	// KindField is a single field of a parent namespace, produced during
	// dotted-name resolution.
	KindField

	// KindSelect is a query block; row type is its projection list.
	KindSelect

	// KindSetop is a union/intersect/except; row type reconciles operands.
	KindSetop

	// KindJoin concatenates its two sides' row types.
	KindJoin

	// KindParameter is a positional parameter in table position.
	KindParameter

	// KindUnnest turns a collection expression into a relation.
	KindUnnest

	// KindOther is a structural namespace for uncommon constructs whose row
	// type is installed by the caller via SetRowType.
	KindOther

	// KindAliasDecoration is the capability of a column-renaming alias layer.
	KindAliasDecoration

	// KindContextDecoration is the capability of an error-context layer.
	KindContextDecoration
)

// String returns a stable spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindField:
		return "field"
	case KindSelect:
		return "select"
	case KindSetop:
		return "setop"
	case KindJoin:
		return "join"
	case KindParameter:
		return "parameter"
	case KindUnnest:
		return "unnest"
	case KindOther:
		return "other"
	case KindAliasDecoration:
		return "alias-decoration"
	case KindContextDecoration:
		return "context-decoration"
	default:
		return "unknown"
	}
}

// rowState is the derivation state machine. Legal transitions:
//
//	stateUnevaluated -> stateEvaluated   (first derivation)
//	stateUnevaluated -> stateOverridden  (SetRowType before derivation)
//	stateOverridden  -> stateEvaluated   (first read of the override)
//
// Any attempt to re-enter stateOverridden from stateEvaluated is a stale
// override and fails.
type rowState int

const (
	stateUnevaluated rowState = iota
	stateOverridden
	stateEvaluated
)

// childEntry is one named child namespace. Order is preserved.
type childEntry struct {
	name string // empty for positional children (nested joins)
	ns   *Namespace
}

// Namespace is the semantic scope produced by one syntactic construct: it
// exposes the row type the construct produces and resolves names against it.
//
// A namespace back-references its syntax node but never owns it; it
// exclusively owns its derived row type and monotonicity list once computed.
// Decoration layers own the namespace they wrap; the wrapped namespace is
// unaware of being wrapped.
type Namespace struct {
	kind      Kind
	reg       *Registry
	node      sqlast.Node // owning syntax node, never nil for registered namespaces
	enclosing sqlast.Node // node including decorations; == node without decoration

	// Variant payloads. Exactly the fields for the namespace's kind are set.
	table     *catalog.Table // KindTable
	parent    *Namespace     // KindField: namespace the field is extracted from
	fieldName string         // KindField
	sel       *sqlast.Select // KindSelect
	setop     *sqlast.Setop  // KindSetop
	operands  []*Namespace   // KindSetop
	join      *sqlast.Join   // KindJoin
	left      *Namespace     // KindJoin
	right     *Namespace     // KindJoin
	unnest    *sqlast.Unnest // KindUnnest
	param     *sqlast.ParamRef

	// Decoration payloads.
	inner        *Namespace // non-nil for decoration layers
	aliasName    string     // KindAliasDecoration
	aliasColumns []string   // KindAliasDecoration: positional output names
	renames      []rename   // KindAliasDecoration: built at derivation
	contextLabel string     // KindContextDecoration

	// Scope links. from is a Select's FROM namespace; scopeParent is the
	// namespace of the enclosing query block, for outward resolution.
	from        *Namespace
	scopeParent *Namespace

	mu          sync.Mutex
	populated   bool
	children    []childEntry
	state       rowState
	rowType     *rowtype.RowType
	derivations int // test hook: how many times derivation ran
	nullForced  bool
	validated   bool
	validating  bool
	monotonic   []MonotonicExpr
	monotonicOK bool
}

// rename maps an outer (aliased) column name to the inner name, built
// positionally from an alias column list.
type rename struct {
	outer string
	inner string
}

// Kind returns the namespace's concrete kind (for a decoration, the
// decoration's own kind; use Unwrap to reach the base variant).
func (ns *Namespace) Kind() Kind { return ns.kind }

// Node returns the syntax node at the root of this namespace.
func (ns *Namespace) Node() sqlast.Node { return ns.node }

// EnclosingNode returns the syntax node including any decorations (an alias
// wrapper); identical to Node when there is no decoration.
func (ns *Namespace) EnclosingNode() sqlast.Node { return ns.enclosing }

// Table returns the resolved catalog table for table-backed namespaces, nil
// otherwise. Never fabricated.
func (ns *Namespace) Table() *catalog.Table {
	if ns.inner != nil {
		return ns.inner.Table()
	}
	return ns.table
}

// RowType returns the namespace's row type, deriving it on first access.
// Derivation runs at most once; all later calls observe the memoized value.
func (ns *Namespace) RowType() (*rowtype.RowType, error) {
	return ns.rowTypeRec(make(map[*Namespace]bool))
}

// rowTypeRec is RowType with a per-walk visited set. The set travels through
// the derivation recursion of a single call path, so a namespace whose
// derivation reaches itself fails with a cyclic-reference error instead of
// recursing forever; independent concurrent walks carry independent sets and
// are never false positives.
func (ns *Namespace) rowTypeRec(visited map[*Namespace]bool) (*rowtype.RowType, error) {
	ns.mu.Lock()
	if ns.state == stateEvaluated {
		rt := ns.rowType
		ns.mu.Unlock()
		return rt, nil
	}
	if ns.state == stateOverridden {
		ns.state = stateEvaluated
		rt := ns.rowType
		ns.mu.Unlock()
		return rt, nil
	}
	ns.mu.Unlock()

	if visited[ns] {
		return nil, ns.reg.newError(CodeCyclicReference, ns.node,
			"row type of %s depends on itself", sqlast.NodeString(ns.node))
	}
	visited[ns] = true
	defer delete(visited, ns)

	rt, err := ns.derive(visited)
	if err != nil {
		return nil, err
	}

	ns.mu.Lock()
	ns.derivations++
	// First completed derivation wins; a concurrent loser observes the
	// winner's result. Derivation is deterministic, so both are equal.
	if ns.state != stateEvaluated {
		ns.rowType = rt
		ns.state = stateEvaluated
	}
	rt = ns.rowType
	ns.mu.Unlock()
	return rt, nil
}

// SetRowType overrides the would-be-derived row type. Legal only before
// first derivation; afterward consumers may already hold the previous row
// type, so a late override is rejected as a programming error.
func (ns *Namespace) SetRowType(rt *rowtype.RowType) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.state == stateEvaluated {
		return ns.reg.newInternalError(CodeStaleOverride, ns.node,
			"row type of %s already derived; override would invalidate existing references",
			sqlast.NodeString(ns.node))
	}
	ns.rowType = rt
	ns.state = stateOverridden
	return nil
}

// RowTypeSansSystemColumns returns the row type with system-generated fields
// removed. A cheap projection computed fresh on each call.
func (ns *Namespace) RowTypeSansSystemColumns() (*rowtype.RowType, error) {
	rt, err := ns.RowType()
	if err != nil {
		return nil, err
	}
	return rt.SansSystemColumns(), nil
}

// MakeNullable installs, as the cached row type, a copy of the current row
// type with every field forced nullable. Used for the outer side of an outer
// join. Row types handed out before the call keep their pre-nullable
// snapshot. Idempotent.
func (ns *Namespace) MakeNullable() error {
	// Derive first if needed.
	if _, err := ns.RowType(); err != nil {
		return err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if !ns.nullForced {
		ns.rowType = ns.rowType.Nullable()
		ns.nullForced = true
	}
	return nil
}

// FieldExists reports whether the namespace's row type contains a field
// matching name under the catalog's matcher, deriving the row type if
// needed.
func (ns *Namespace) FieldExists(name string) (bool, error) {
	rt, err := ns.RowType()
	if err != nil {
		return false, err
	}
	return rt.Index(name, ns.reg.matcher) >= 0, nil
}

// LookupChild returns the child namespace registered under name, or nil for
// a merely-absent name - callers probe with it during outward resolution, so
// absence is not an error.
//
// For table- and select-backed namespaces a matching field lazily produces a
// Field namespace (the nested scope of a dotted reference), memoized in the
// child list. Unnamed children (a nested join under a join) are searched
// recursively.
func (ns *Namespace) LookupChild(name string) *Namespace {
	if ns.inner != nil {
		return ns.inner.LookupChild(name)
	}

	ns.mu.Lock()
	for _, c := range ns.children {
		if c.name != "" && ns.reg.matcher.Match(c.name, name) {
			ns.mu.Unlock()
			return c.ns
		}
	}
	unnamed := make([]*Namespace, 0, 2)
	for _, c := range ns.children {
		if c.name == "" {
			unnamed = append(unnamed, c.ns)
		}
	}
	ns.mu.Unlock()

	for _, child := range unnamed {
		if found := child.LookupChild(name); found != nil {
			return found
		}
	}

	if ns.kind == KindTable || ns.kind == KindSelect {
		if ok, err := ns.FieldExists(name); err == nil && ok {
			return ns.fieldChild(name)
		}
	}
	return nil
}

// fieldChild returns the memoized Field namespace for a known field name,
// creating it on first use. Field namespaces live outside the registry's
// node map: they have no syntax node of their own and borrow the parent's.
func (ns *Namespace) fieldChild(name string) *Namespace {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for _, c := range ns.children {
		if c.ns.kind == KindField && ns.reg.matcher.Match(c.name, name) {
			return c.ns
		}
	}
	field := &Namespace{
		kind:      KindField,
		reg:       ns.reg,
		node:      ns.node,
		enclosing: ns.enclosing,
		parent:    ns,
		fieldName: name,
	}
	ns.children = append(ns.children, childEntry{name: name, ns: field})
	return field
}

// addChild appends a named child. Registration-time only.
func (ns *Namespace) addChild(name string, child *Namespace) {
	ns.mu.Lock()
	ns.children = append(ns.children, childEntry{name: name, ns: child})
	ns.mu.Unlock()
}

// Translate maps a field name as seen by consumers of this namespace to the
// name used in the underlying namespace. Identity unless an alias decoration
// renames columns.
func (ns *Namespace) Translate(name string) string {
	switch ns.kind {
	case KindAliasDecoration:
		// Renames are built on first derivation; derive if needed so that
		// translation works as soon as consumers can see the outer names.
		if _, err := ns.RowType(); err != nil {
			return name
		}
		ns.mu.Lock()
		renames := ns.renames
		ns.mu.Unlock()
		for _, m := range renames {
			if ns.reg.matcher.Match(m.outer, name) {
				return ns.inner.Translate(m.inner)
			}
		}
		return ns.inner.Translate(name)
	case KindContextDecoration:
		return ns.inner.Translate(name)
	default:
		return name
	}
}

// Unwrap returns this namespace viewed as kind, tunneling through any number
// of decoration layers. Fails with an internal unsupported-capability error
// when no layer satisfies kind - that is a caller bug, not a user error.
func (ns *Namespace) Unwrap(kind Kind) (*Namespace, error) {
	for layer := ns; layer != nil; layer = layer.inner {
		if layer.kind == kind {
			return layer, nil
		}
	}
	return nil, ns.reg.newInternalError(CodeUnsupportedCapability, ns.node,
		"namespace of kind %s provides no %s layer", ns.kind, kind)
}

// IsWrapperFor is the non-failing probe form of Unwrap.
func (ns *Namespace) IsWrapperFor(kind Kind) bool {
	for layer := ns; layer != nil; layer = layer.inner {
		if layer.kind == kind {
			return true
		}
	}
	return false
}

// AliasName returns the alias of an alias-decoration layer, empty otherwise.
func (ns *Namespace) AliasName() string { return ns.aliasName }

// WithAlias wraps a namespace in an alias decoration carrying a new relation
// name and, when columns is non-empty, positional output column names.
func WithAlias(inner *Namespace, node sqlast.Node, name string, columns []string) *Namespace {
	ns := inner.reg.newNamespace(KindAliasDecoration, node, node)
	ns.inner = inner
	ns.aliasName = name
	ns.aliasColumns = columns
	ns.populated = true
	return ns
}

// WithContext wraps a namespace in an error-context decoration: validation
// errors passing through it gain the label, and everything else delegates to
// the wrapped namespace.
func WithContext(inner *Namespace, label string) *Namespace {
	ns := inner.reg.newNamespace(KindContextDecoration, inner.node, inner.enclosing)
	ns.inner = inner
	ns.contextLabel = label
	ns.populated = true
	return ns
}
