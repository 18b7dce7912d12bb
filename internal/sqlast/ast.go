package sqlast

import (
	"fmt"
	"strings"

	"github.com/roach88/relscope/internal/sqltype"
)

// Node is a relational syntax-tree node: anything that introduces a scope.
//
// Sealed - only types in this package implement it.
type Node interface {
	node() // Marker method - seals interface to this package
}

// Expr is a scalar expression appearing in projections, predicates and
// ordering clauses.
//
// Sealed - only types in this package implement it.
type Expr interface {
	expr() // Marker method - seals interface to this package
}

// TableRef references a catalog table by name.
type TableRef struct {
	Name string
}

func (*TableRef) node() {}

// CTE is one entry of a WITH list: a named subquery visible to the body and
// to later entries.
type CTE struct {
	Name  string
	Query Node
}

// SelectItem is one projection of a SELECT list.
type SelectItem struct {
	Expr  Expr
	Alias string // empty when unaliased
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// Select is a query block: WITH / FROM / WHERE / GROUP BY / ORDER BY plus a
// projection list.
type Select struct {
	With    []CTE
	From    Node
	Items   []SelectItem
	Where   Expr
	GroupBy []Expr
	OrderBy []OrderItem
}

func (*Select) node() {}

// SetopKind enumerates set operations.
type SetopKind int

const (
	Union SetopKind = iota
	Intersect
	Except
)

// String returns the SQL keyword for the set operation.
func (k SetopKind) String() string {
	switch k {
	case Union:
		return "UNION"
	case Intersect:
		return "INTERSECT"
	case Except:
		return "EXCEPT"
	default:
		return fmt.Sprintf("SetopKind(%d)", int(k))
	}
}

// Setop combines two or more inputs with a set operation.
type Setop struct {
	Op     SetopKind
	Inputs []Node
}

func (*Setop) node() {}

// JoinKind enumerates join flavors.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftOuterJoin
	RightOuterJoin
	FullOuterJoin
)

// String returns the SQL keyword sequence for the join kind.
func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "INNER JOIN"
	case LeftOuterJoin:
		return "LEFT OUTER JOIN"
	case RightOuterJoin:
		return "RIGHT OUTER JOIN"
	case FullOuterJoin:
		return "FULL OUTER JOIN"
	default:
		return fmt.Sprintf("JoinKind(%d)", int(k))
	}
}

// Join combines two inputs. On is nil for a cross join.
type Join struct {
	Kind  JoinKind
	Left  Node
	Right Node
	On    Expr
}

func (*Join) node() {}

// Alias decorates an input with a new name and, optionally, renamed output
// columns ("t AS x(a, b)"). For a namespace built under an Alias, the Alias
// is the enclosing node and the input is the namespace's own node.
type Alias struct {
	Input   Node
	Name    string
	Columns []string // empty means column names pass through
}

func (*Alias) node() {}

// Unnest turns a collection-valued expression into a relation.
type Unnest struct {
	Expr Expr
}

func (*Unnest) node() {}

// ParamRef is a positional parameter used in table position (e.g. a table
// argument of a table function).
type ParamRef struct {
	Ordinal int
}

func (*ParamRef) node() {}

// ColumnRef names a column, optionally qualified by a table alias.
type ColumnRef struct {
	Qualifier string // empty when unqualified
	Name      string
}

func (*ColumnRef) expr() {}

// Literal is a typed constant. Text carries the source spelling; the
// validator never evaluates it.
type Literal struct {
	Type sqltype.Type
	Text string
}

func (*Literal) expr() {}

// Call applies a named function to arguments.
type Call struct {
	Fn   string
	Args []Expr
}

func (*Call) expr() {}

// ParamExpr is a positional parameter in expression position.
type ParamExpr struct {
	Ordinal int
}

func (*ParamExpr) expr() {}

// ExprString renders an expression in a stable textual form. The validator
// uses it to compare expressions for monotonicity propagation and to report
// offending expressions in errors.
func ExprString(e Expr) string {
	switch x := e.(type) {
	case *ColumnRef:
		if x.Qualifier != "" {
			return x.Qualifier + "." + x.Name
		}
		return x.Name
	case *Literal:
		return x.Text
	case *Call:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = ExprString(a)
		}
		return x.Fn + "(" + strings.Join(args, ", ") + ")"
	case *ParamExpr:
		return fmt.Sprintf("?%d", x.Ordinal)
	default:
		return fmt.Sprintf("%T", e)
	}
}

// NodeString renders a short description of a node for error messages.
func NodeString(n Node) string {
	switch x := n.(type) {
	case *TableRef:
		return "table " + x.Name
	case *Select:
		return "select"
	case *Setop:
		return strings.ToLower(x.Op.String())
	case *Join:
		return strings.ToLower(x.Kind.String())
	case *Alias:
		return "alias " + x.Name
	case *Unnest:
		return "unnest"
	case *ParamRef:
		return fmt.Sprintf("parameter ?%d", x.Ordinal)
	default:
		return fmt.Sprintf("%T", n)
	}
}

// FreeTableNames collects, in tree order, every table name referenced under
// n that no WITH declaration inside n binds: a reference inside a nested
// Select whose WITH list redeclares the name resolves to that inner alias,
// so it is not free. Names compare under canon; nil means exact spelling.
// The static cycle analyzer uses this to build the WITH-alias dependency
// graph.
func FreeTableNames(n Node, canon func(string) string) []string {
	if canon == nil {
		canon = func(s string) string { return s }
	}
	var out []string
	var walk func(Node, map[string]bool)
	walk = func(n Node, bound map[string]bool) {
		switch x := n.(type) {
		case *TableRef:
			if !bound[canon(x.Name)] {
				out = append(out, x.Name)
			}
		case *Select:
			inner := bound
			if len(x.With) > 0 {
				// All aliases of one WITH list are in scope for every body of
				// the list as well as for the FROM clause.
				inner = make(map[string]bool, len(bound)+len(x.With))
				for name := range bound {
					inner[name] = true
				}
				for _, cte := range x.With {
					inner[canon(cte.Name)] = true
				}
			}
			for _, cte := range x.With {
				walk(cte.Query, inner)
			}
			if x.From != nil {
				walk(x.From, inner)
			}
		case *Setop:
			for _, in := range x.Inputs {
				walk(in, bound)
			}
		case *Join:
			walk(x.Left, bound)
			walk(x.Right, bound)
		case *Alias:
			walk(x.Input, bound)
		case *Unnest, *ParamRef:
			// No table references.
		}
	}
	if n != nil {
		walk(n, map[string]bool{})
	}
	return out
}
