package namespace

import (
	"errors"
	"strings"

	"github.com/roach88/relscope/internal/catalog"
	"github.com/roach88/relscope/internal/sqlast"
)

// Validator builds the namespace tree for a query and drives its validation.
//
// One validator serves one query; its registry owns every namespace created
// along the way and survives validation so later phases can look namespaces
// up by syntax node.
type Validator struct {
	cat catalog.Catalog
	reg *Registry
}

// New creates a validator over the given catalog. The registry adopts the
// catalog's identifier matcher.
func New(cat catalog.Catalog) *Validator {
	return &Validator{cat: cat, reg: NewRegistry(cat.NameMatcher())}
}

// Registry returns the registry owning this validator's namespaces.
func (v *Validator) Registry() *Registry { return v.reg }

// ValidateQuery registers namespaces for every scope under root, validates
// the root namespace, and returns it. The first error aborts the walk; no
// sibling of a failed namespace is validated afterward.
func (v *Validator) ValidateQuery(root sqlast.Node) (*Namespace, error) {
	ns, err := v.registerNode(root, root, &scope{})
	if err != nil {
		return nil, err
	}
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	return ns, nil
}

// scope is one frame of the registration-time name environment: WITH aliases
// visible at this nesting level plus the namespace owning the frame, which
// outward column resolution climbs through.
type scope struct {
	parent *scope
	owner  *Namespace
	ctes   map[string]*Namespace // keyed by matcher.Canon(name)
}

func (sc *scope) lookupCTE(canon string) *Namespace {
	for s := sc; s != nil; s = s.parent {
		if ns, ok := s.ctes[canon]; ok {
			return ns
		}
	}
	return nil
}

// ownerChain returns the nearest enclosing namespace for outward resolution.
func (sc *scope) enclosingOwner() *Namespace {
	for s := sc; s != nil; s = s.parent {
		if s.owner != nil {
			return s.owner
		}
	}
	return nil
}

// registerNode creates (or resolves) the namespace for node and registers
// its whole subtree.
func (v *Validator) registerNode(node, enclosing sqlast.Node, sc *scope) (*Namespace, error) {
	ns, err := v.shell(node, enclosing, sc)
	if err != nil {
		return nil, err
	}
	if err := v.populate(ns, sc); err != nil {
		return nil, err
	}
	return ns, nil
}

// shell creates the namespace for node without registering children. The
// two-phase split exists so WITH aliases can be bound into scope before
// their bodies are walked, which is what lets self- and mutually-recursive
// aliases form a detectable cycle instead of an unresolved name.
func (v *Validator) shell(node, enclosing sqlast.Node, sc *scope) (*Namespace, error) {
	switch n := node.(type) {
	case *sqlast.TableRef:
		if cte := sc.lookupCTE(v.reg.matcher.Canon(n.Name)); cte != nil {
			// Each reference gets its own layer over the shared alias
			// namespace. Nullability forced on one reference (the outer side
			// of an outer join) must not reach the row type another
			// reference observes.
			ref := v.reg.newNamespace(KindContextDecoration, node, enclosing)
			ref.inner = cte
			ref.populated = true
			return ref, nil
		}
		table, err := v.cat.ResolveTable(n.Name)
		if err != nil {
			if errors.Is(err, catalog.ErrTableNotFound) {
				return nil, v.reg.newError(CodeTableNotFound, node, "table %q not found", n.Name)
			}
			return nil, err
		}
		ns := v.reg.newNamespace(KindTable, node, enclosing)
		ns.table = table
		return ns, nil

	case *sqlast.Alias:
		inner, err := v.registerNode(n.Input, node, sc)
		if err != nil {
			return nil, err
		}
		if len(n.Columns) > 0 {
			return WithAlias(inner, node, n.Name, n.Columns), nil
		}
		v.reg.bind(node, inner)
		return inner, nil

	case *sqlast.Select:
		ns := v.reg.newNamespace(KindSelect, node, enclosing)
		ns.sel = n
		return ns, nil

	case *sqlast.Setop:
		if len(n.Inputs) < 2 {
			return nil, v.reg.newInternalError(CodeTypeMismatch, node,
				"%s requires at least two inputs", n.Op)
		}
		ns := v.reg.newNamespace(KindSetop, node, enclosing)
		ns.setop = n
		return ns, nil

	case *sqlast.Join:
		ns := v.reg.newNamespace(KindJoin, node, enclosing)
		ns.join = n
		return ns, nil

	case *sqlast.Unnest:
		ns := v.reg.newNamespace(KindUnnest, node, enclosing)
		ns.unnest = n
		return ns, nil

	case *sqlast.ParamRef:
		ns := v.reg.newNamespace(KindParameter, node, enclosing)
		ns.param = n
		return ns, nil

	default:
		return nil, v.reg.newInternalError(CodeUnsupportedCapability, node,
			"no namespace for node %s", sqlast.NodeString(node))
	}
}

// populate registers the subtree under an already-created namespace shell.
// Idempotent: a WITH alias referenced several times is populated once.
func (v *Validator) populate(ns *Namespace, sc *scope) error {
	ns.mu.Lock()
	if ns.populated {
		ns.mu.Unlock()
		return nil
	}
	ns.populated = true
	ns.mu.Unlock()

	switch ns.kind {
	case KindSelect:
		return v.populateSelect(ns, sc)

	case KindSetop:
		for _, input := range ns.setop.Inputs {
			child, err := v.registerNode(input, input, sc)
			if err != nil {
				return err
			}
			ns.operands = append(ns.operands, child)
		}
		return nil

	case KindJoin:
		ns.scopeParent = outwardOwner(sc)
		left, err := v.registerNode(ns.join.Left, ns.join.Left, sc)
		if err != nil {
			return err
		}
		right, err := v.registerNode(ns.join.Right, ns.join.Right, sc)
		if err != nil {
			return err
		}
		ns.left, ns.right = left, right
		ns.addChild(sourceName(ns.join.Left), left)
		ns.addChild(sourceName(ns.join.Right), right)
		return nil

	default:
		// Table, Parameter, Unnest: leaves.
		return nil
	}
}

func (v *Validator) populateSelect(ns *Namespace, sc *scope) error {
	ns.scopeParent = sc.enclosingOwner()
	inner := &scope{parent: sc, owner: ns, ctes: make(map[string]*Namespace)}

	if len(ns.sel.With) > 0 {
		// Reject alias cycles statically, with the full path, before the
		// walk reaches one; the per-namespace re-entrancy guard remains the
		// backstop for cycles assembled by other means.
		if cycles := AnalyzeAliasCycles(ns.sel.With, v.reg.matcher); len(cycles) > 0 {
			return v.reg.newError(CodeCyclicReference, ns.node,
				"cyclic WITH aliases: %s", strings.Join(cycles[0].Path, " -> "))
		}

		// Two phases: bind every alias name to its namespace shell, then
		// walk the bodies. A body referencing a later (or its own) alias
		// binds to the shell rather than missing the name.
		shells := make([]*Namespace, len(ns.sel.With))
		for i, cte := range ns.sel.With {
			shell, err := v.shell(cte.Query, cte.Query, inner)
			if err != nil {
				return err
			}
			wrapped := WithContext(shell, "WITH "+cte.Name)
			shells[i] = wrapped
			inner.ctes[v.reg.matcher.Canon(cte.Name)] = wrapped
			ns.addChild(cte.Name, wrapped)
		}
		for i, cte := range ns.sel.With {
			if err := v.populate(shells[i].inner, inner); err != nil {
				return withContext(err, "WITH "+cte.Name)
			}
		}
	}

	if ns.sel.From != nil {
		from, err := v.registerNode(ns.sel.From, ns.sel.From, inner)
		if err != nil {
			return err
		}
		ns.from = from
		ns.addChild(sourceName(ns.sel.From), from)
	}
	return nil
}

// outwardOwner is the scope namespace a nested relation resolves correlated
// names against: the frame above the current query block, so a join's ON
// clause sees outer queries but not the sibling outputs of its own block.
func outwardOwner(sc *scope) *Namespace {
	owner := sc.enclosingOwner()
	if owner == nil {
		return nil
	}
	return owner.scopeParent
}

// sourceName is the name a FROM item is reachable under: its alias, or the
// referenced table name. Derived tables and nested joins are unnamed.
func sourceName(node sqlast.Node) string {
	switch n := node.(type) {
	case *sqlast.Alias:
		return n.Name
	case *sqlast.TableRef:
		return n.Name
	default:
		return ""
	}
}
