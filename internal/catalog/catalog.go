package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/relscope/internal/rowtype"
	"github.com/roach88/relscope/internal/sqlname"
)

// ErrTableNotFound is wrapped by every resolution failure for a merely-absent
// table. Probe with errors.Is.
var ErrTableNotFound = errors.New("table not found")

// ColumnOrder declares one key of a table's natural ordering. Tables with a
// declared ordering seed the monotonicity analysis; most tables declare none.
type ColumnOrder struct {
	Column string
	Desc   bool
}

// Table is the catalog's declared schema for one table.
//
// Tables are immutable once handed out; the validator holds references but
// never mutates them.
type Table struct {
	Name     string
	Columns  []rowtype.Field
	Ordering []ColumnOrder
}

// RowType returns the table's schema as a row type.
func (t *Table) RowType() *rowtype.RowType {
	return rowtype.FromFields(t.Columns)
}

// Catalog resolves table names and owns the identifier-matching policy.
type Catalog interface {
	// ResolveTable returns the schema of the named table. A merely-absent
	// table yields an error wrapping ErrTableNotFound.
	ResolveTable(name string) (*Table, error)

	// NameMatcher returns the matcher every name comparison against this
	// catalog must use.
	NameMatcher() sqlname.Matcher
}

// Mem is a map-backed catalog.
type Mem struct {
	matcher sqlname.Matcher
	tables  map[string]*Table // keyed by matcher.Canon(name)
}

// NewMem creates an empty in-memory catalog. A nil matcher defaults to
// case-insensitive matching.
func NewMem(matcher sqlname.Matcher) *Mem {
	if matcher == nil {
		matcher = sqlname.CaseInsensitive()
	}
	return &Mem{matcher: matcher, tables: make(map[string]*Table)}
}

// Add registers a table, replacing any previous table of the same name under
// the catalog's matcher.
func (c *Mem) Add(t *Table) *Mem {
	c.tables[c.matcher.Canon(t.Name)] = t
	return c
}

// ResolveTable implements Catalog.
func (c *Mem) ResolveTable(name string) (*Table, error) {
	if t, ok := c.tables[c.matcher.Canon(name)]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
}

// NameMatcher implements Catalog.
func (c *Mem) NameMatcher() sqlname.Matcher { return c.matcher }

// TableNames returns the declared names of all tables, sorted.
func (c *Mem) TableNames() []string {
	out := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t.Name)
	}
	sort.Strings(out)
	return out
}
