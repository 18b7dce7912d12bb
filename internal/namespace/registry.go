package namespace

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/relscope/internal/sqlast"
	"github.com/roach88/relscope/internal/sqlname"
)

// Registry is the arena that exclusively owns every namespace of one
// validation context, plus the mapping from syntax-node identity to
// namespace.
//
// The map is populated during the top-down registration walk and read-only
// afterward. Several nodes may map to one namespace: a bare "t AS x" alias
// node and its input both bind to the input's namespace.
//
// Each registry mints a UUIDv7 session token at construction. The token is
// time-sortable, stamped on every ValidationError, and surfaced by the CLI
// so log lines from one validation run can be correlated.
type Registry struct {
	session string
	matcher sqlname.Matcher

	mu     sync.Mutex
	arena  []*Namespace
	byNode map[sqlast.Node]*Namespace
}

// NewRegistry creates an empty registry. A nil matcher defaults to
// case-insensitive matching.
func NewRegistry(matcher sqlname.Matcher) *Registry {
	if matcher == nil {
		matcher = sqlname.CaseInsensitive()
	}
	return &Registry{
		session: uuid.Must(uuid.NewV7()).String(),
		matcher: matcher,
		byNode:  make(map[sqlast.Node]*Namespace),
	}
}

// Session returns the registry's session token.
func (r *Registry) Session() string { return r.session }

// Matcher returns the identifier matcher all name comparisons use.
func (r *Registry) Matcher() sqlname.Matcher { return r.matcher }

// Get returns the namespace registered for a syntax node, or nil.
func (r *Registry) Get(node sqlast.Node) *Namespace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byNode[node]
}

// Len returns the number of namespaces in the arena.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.arena)
}

// newNamespace allocates a namespace in the arena and binds it to node.
func (r *Registry) newNamespace(kind Kind, node, enclosing sqlast.Node) *Namespace {
	ns := &Namespace{
		kind:      kind,
		reg:       r,
		node:      node,
		enclosing: enclosing,
	}
	r.mu.Lock()
	r.arena = append(r.arena, ns)
	if node != nil {
		r.byNode[node] = ns
	}
	r.mu.Unlock()
	return ns
}

// bind registers an additional node for an existing namespace. Used when a
// bare alias carries no column list: the alias node and its input both map
// to the input's namespace.
func (r *Registry) bind(node sqlast.Node, ns *Namespace) {
	r.mu.Lock()
	r.byNode[node] = ns
	r.mu.Unlock()
}
