package rowtype

import (
	"strings"

	"github.com/roach88/relscope/internal/sqlname"
	"github.com/roach88/relscope/internal/sqltype"
)

// Field is one column of a row type.
type Field struct {
	// Name is the output name of the column. Uniqueness is not required.
	Name string

	// Type is the column's data type.
	Type sqltype.Type

	// Nullable reports whether the column can produce NULL.
	Nullable bool

	// System marks catalog-generated hidden columns that are excluded from
	// SELECT * expansion and from SansSystemColumns.
	System bool
}

// Equal reports structural equality of two fields.
func (f Field) Equal(o Field) bool {
	return f.Name == o.Name && f.Type == o.Type && f.Nullable == o.Nullable && f.System == o.System
}

// RowType is an immutable ordered list of fields.
//
// The zero value is an empty row type. Construct non-empty values with
// FromFields or a Builder; never mutate the field slice after construction.
type RowType struct {
	fields []Field
}

// FromFields builds a RowType from a field list. The slice is copied, so the
// caller may reuse its argument.
func FromFields(fields []Field) *RowType {
	out := make([]Field, len(fields))
	copy(out, fields)
	return &RowType{fields: out}
}

// Len returns the number of fields.
func (rt *RowType) Len() int { return len(rt.fields) }

// Field returns the i-th field. Panics if i is out of range, matching slice
// semantics.
func (rt *RowType) Field(i int) Field { return rt.fields[i] }

// FieldList returns a copy of the field list.
func (rt *RowType) FieldList() []Field {
	out := make([]Field, len(rt.fields))
	copy(out, rt.fields)
	return out
}

// Index returns the position of the first field matching name under the
// given matcher, or -1 if absent.
func (rt *RowType) Index(name string, matcher sqlname.Matcher) int {
	for i, f := range rt.fields {
		if matcher.Match(f.Name, name) {
			return i
		}
	}
	return -1
}

// Count returns how many fields match name under the given matcher. A count
// greater than one means the name is ambiguous in this row type.
func (rt *RowType) Count(name string, matcher sqlname.Matcher) int {
	n := 0
	for _, f := range rt.fields {
		if matcher.Match(f.Name, name) {
			n++
		}
	}
	return n
}

// Equal reports structural equality: same arity and pairwise-equal fields.
func (rt *RowType) Equal(o *RowType) bool {
	if rt.Len() != o.Len() {
		return false
	}
	for i, f := range rt.fields {
		if !f.Equal(o.fields[i]) {
			return false
		}
	}
	return true
}

// SansSystemColumns returns a row type with system fields removed.
//
// This is a cheap projection computed fresh on every call; it is not
// memoized anywhere.
func (rt *RowType) SansSystemColumns() *RowType {
	out := make([]Field, 0, len(rt.fields))
	for _, f := range rt.fields {
		if !f.System {
			out = append(out, f)
		}
	}
	return &RowType{fields: out}
}

// Nullable returns a new row type identical to rt except that every field's
// Nullable flag is true. rt itself is untouched.
func (rt *RowType) Nullable() *RowType {
	out := make([]Field, len(rt.fields))
	copy(out, rt.fields)
	for i := range out {
		out[i].Nullable = true
	}
	return &RowType{fields: out}
}

// Concat returns the concatenation of rt followed by o. Name collisions are
// preserved verbatim.
func (rt *RowType) Concat(o *RowType) *RowType {
	out := make([]Field, 0, len(rt.fields)+len(o.fields))
	out = append(out, rt.fields...)
	out = append(out, o.fields...)
	return &RowType{fields: out}
}

// String renders the row type in a stable debug notation:
//
//	ROW(id INT, name VARCHAR(32) NULL)
//
// Golden tests compare against this rendering, so changes here invalidate
// golden files.
func (rt *RowType) String() string {
	var b strings.Builder
	b.WriteString("ROW(")
	for i, f := range rt.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte(' ')
		b.WriteString(f.Type.String())
		if f.Nullable {
			b.WriteString(" NULL")
		}
		if f.System {
			b.WriteString(" SYSTEM")
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Builder accumulates fields for a RowType.
type Builder struct {
	fields []Field
}

// Add appends a field and returns the builder for chaining.
func (b *Builder) Add(f Field) *Builder {
	b.fields = append(b.fields, f)
	return b
}

// Build freezes the accumulated fields into a RowType. The builder must not
// be reused afterward.
func (b *Builder) Build() *RowType {
	return &RowType{fields: b.fields}
}
