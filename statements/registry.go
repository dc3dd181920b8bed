// Package statements builds and emits the SQL statements produced by the
// generator: the table and column registry, column expressions, INSERT and
// UPDATE statements and the statement writers.
package statements

import "github.com/syssam/seedql/dialect"

// Registry canonicalizes tables and columns by name, so that pointer
// equality suffices elsewhere. Unknown names are created lazily on first
// resolve. Names are kept as declared and compared per the dialect's
// identifier folding rule.
type Registry struct {
	dialect dialect.Dialect
	tables  map[string]*Table
	order   []*Table
}

// NewRegistry creates an empty registry for the given dialect.
func NewRegistry(d dialect.Dialect) *Registry {
	return &Registry{
		dialect: d,
		tables:  make(map[string]*Table),
	}
}

// Table resolves the table with the given name, creating it on first use.
func (r *Registry) Table(name string) *Table {
	key := r.dialect.Fold(name)
	if t, ok := r.tables[key]; ok {
		return t
	}
	t := &Table{
		Name:     name,
		registry: r,
		columns:  make(map[string]*Column),
	}
	r.tables[key] = t
	r.order = append(r.order, t)
	return t
}

// Tables returns all resolved tables in resolution order.
func (r *Registry) Tables() []*Table { return r.order }

// Table is the canonical identity of one database table.
type Table struct {
	// Name as declared in the model.
	Name string

	registry *Registry
	columns  map[string]*Column
	order    []*Column
}

// Column resolves the column with the given name, creating it on first use.
func (t *Table) Column(name string) *Column {
	key := t.registry.dialect.Fold(name)
	if c, ok := t.columns[key]; ok {
		return c
	}
	c := &Column{Table: t, Name: name}
	t.columns[key] = c
	t.order = append(t.order, c)
	return c
}

// Columns returns all resolved columns in resolution order.
func (t *Table) Columns() []*Column { return t.order }

// Quoted returns the quoted table name.
func (t *Table) Quoted(d dialect.Dialect) string { return d.Quote(t.Name) }

// String returns the plain table name.
func (t *Table) String() string { return t.Name }

// Column is the canonical identity of one column of a Table.
type Column struct {
	// Table that owns the column.
	Table *Table
	// Name as declared in the model.
	Name string
}

// Quoted returns the quoted column name.
func (c *Column) Quoted(d dialect.Dialect) string { return d.Quote(c.Name) }

// String returns the plain column name.
func (c *Column) String() string { return c.Name }
