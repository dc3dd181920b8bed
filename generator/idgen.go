package generator

import (
	"fmt"
	"strconv"

	"github.com/syssam/seedql/dialect"
	"github.com/syssam/seedql/statements"
)

// IDGenerator produces identifier values for one generated id column and
// remembers the last value it handed out, so that references can use the
// current value of the underlying database object.
type IDGenerator interface {
	// Name identifies the generator within the context.
	Name() string
	// NextValue allocates the next identifier value.
	NextValue() int64
	// CurrentValue returns the last allocated value.
	CurrentValue() int64
	// InsertExpression returns the expression written into the INSERT of
	// the row that owns the id, or nil if the column is omitted and the
	// database assigns the value.
	InsertExpression(id int64) statements.ColumnExpression
	// Expression returns the expression for a reference to a known id.
	Expression(id int64, forWhere bool) statements.ColumnExpression
	// CreatePreInsertStatements writes statements needed before the row
	// insert, e.g. advancing a generator table.
	CreatePreInsertStatements(w statements.Writer) error
	// WriteAlignment writes statements moving the underlying database
	// object past the highest value used during generation.
	WriteAlignment(w statements.Writer) error
}

func literalID(id int64) statements.ColumnExpression {
	return statements.Plain(strconv.FormatInt(id, 10))
}

// SequenceGenerator allocates identifiers from a database sequence. In
// relative mode the insert expression advances the sequence itself; in
// absolute mode literal values are written and the sequence is realigned at
// the end of the run.
type SequenceGenerator struct {
	dialect  dialect.Dialect
	name     string
	alloc    int64
	relative bool
	current  int64
	used     bool
}

// NewSequenceGenerator creates a generator for the named sequence.
func NewSequenceGenerator(d dialect.Dialect, name string, allocationSize int64, relative bool) (*SequenceGenerator, error) {
	if !d.SupportsSequences() {
		return nil, NewDialectError(d.Name(), "sequences", fmt.Sprintf("generator %q requires sequences", name))
	}
	if allocationSize <= 0 {
		allocationSize = 1
	}
	return &SequenceGenerator{dialect: d, name: name, alloc: allocationSize, relative: relative}, nil
}

// Name returns the sequence name.
func (g *SequenceGenerator) Name() string { return g.name }

// NextValue allocates the next identifier value.
func (g *SequenceGenerator) NextValue() int64 {
	g.current++
	g.used = true
	return g.current
}

// CurrentValue returns the last allocated value.
func (g *SequenceGenerator) CurrentValue() int64 { return g.current }

// InsertExpression returns nextval in relative mode, the literal otherwise.
func (g *SequenceGenerator) InsertExpression(id int64) statements.ColumnExpression {
	if g.relative {
		return statements.Plain(g.dialect.NextSequenceValue(g.name, g.alloc))
	}
	return literalID(id)
}

// Expression returns the literal id expression.
func (g *SequenceGenerator) Expression(id int64, _ bool) statements.ColumnExpression {
	return literalID(id)
}

// CurrentValueExpression returns the currval expression of the sequence.
func (g *SequenceGenerator) CurrentValueExpression() statements.ColumnExpression {
	return statements.Plain(g.dialect.CurrentSequenceValue(g.name))
}

// CreatePreInsertStatements writes nothing, sequences advance inline.
func (g *SequenceGenerator) CreatePreInsertStatements(statements.Writer) error { return nil }

// WriteAlignment moves the sequence past the values written as literals. In
// relative mode the sequence advanced during generation and nothing is
// written.
func (g *SequenceGenerator) WriteAlignment(w statements.Writer) error {
	if !g.used || g.relative {
		return nil
	}
	return w.WriteStatement(statements.RawStatement(g.dialect.AlignSequence(g.name, g.current)))
}

// IdentityGenerator models a database assigned auto increment column. The
// id column is omitted from the INSERT; the generator tracks the values the
// database will assign to rows of an initially empty table.
type IdentityGenerator struct {
	dialect dialect.Dialect
	table   *statements.Table
	column  *statements.Column
	current int64
}

// NewIdentityGenerator creates a generator for the identity column.
func NewIdentityGenerator(d dialect.Dialect, table *statements.Table, column *statements.Column) (*IdentityGenerator, error) {
	if !d.SupportsIdentity() {
		return nil, NewDialectError(d.Name(), "identity", fmt.Sprintf("column %s.%s requires identity support", table, column))
	}
	return &IdentityGenerator{dialect: d, table: table, column: column}, nil
}

// Name returns the generator name, derived from the column.
func (g *IdentityGenerator) Name() string { return g.table.Name + "." + g.column.Name }

// NextValue allocates the value the database will assign next.
func (g *IdentityGenerator) NextValue() int64 {
	g.current++
	return g.current
}

// CurrentValue returns the last allocated value.
func (g *IdentityGenerator) CurrentValue() int64 { return g.current }

// InsertExpression returns nil: the column is omitted and the database
// assigns the value on insert.
func (g *IdentityGenerator) InsertExpression(int64) statements.ColumnExpression { return nil }

// Expression returns the literal id expression.
func (g *IdentityGenerator) Expression(id int64, _ bool) statements.ColumnExpression {
	return literalID(id)
}

// CreatePreInsertStatements writes nothing.
func (g *IdentityGenerator) CreatePreInsertStatements(statements.Writer) error { return nil }

// WriteAlignment writes nothing: identity counters advance with every
// insert.
func (g *IdentityGenerator) WriteAlignment(statements.Writer) error { return nil }

// TableGenerator allocates identifiers from a row of a generator table. In
// relative mode each insert is preceded by an UPDATE advancing the row and
// the id is read back with a sub-select; in absolute mode literal values are
// written and the row is realigned at the end.
type TableGenerator struct {
	dialect  dialect.Dialect
	genTable *statements.Table
	pkColumn *statements.Column
	valueCol *statements.Column
	rowName  string
	relative bool
	current  int64
	used     bool
}

// NewTableGenerator creates a generator reading from the given generator
// table row.
func NewTableGenerator(d dialect.Dialect, genTable *statements.Table, pkColumn, valueColumn *statements.Column, rowName string, relative bool) *TableGenerator {
	return &TableGenerator{
		dialect:  d,
		genTable: genTable,
		pkColumn: pkColumn,
		valueCol: valueColumn,
		rowName:  rowName,
		relative: relative,
	}
}

// Name returns the generator row name.
func (g *TableGenerator) Name() string { return g.rowName }

// NextValue allocates the next identifier value.
func (g *TableGenerator) NextValue() int64 {
	g.current++
	g.used = true
	return g.current
}

// CurrentValue returns the last allocated value.
func (g *TableGenerator) CurrentValue() int64 { return g.current }

// InsertExpression returns a sub-select on the generator row in relative
// mode, the literal otherwise.
func (g *TableGenerator) InsertExpression(id int64) statements.ColumnExpression {
	if g.relative {
		return statements.Plain(fmt.Sprintf("(SELECT %s FROM %s WHERE %s = %s)",
			g.valueCol.Quoted(g.dialect), g.genTable.Quoted(g.dialect),
			g.pkColumn.Quoted(g.dialect), g.dialect.StringLiteral(g.rowName)))
	}
	return literalID(id)
}

// Expression returns the literal id expression.
func (g *TableGenerator) Expression(id int64, _ bool) statements.ColumnExpression {
	return literalID(id)
}

// CreatePreInsertStatements advances the generator row in relative mode.
func (g *TableGenerator) CreatePreInsertStatements(w statements.Writer) error {
	if !g.relative {
		return nil
	}
	stmt := statements.NewUpdate(g.genTable)
	stmt.Set(g.valueCol, statements.Plain(g.valueCol.Quoted(g.dialect)+" + 1"))
	stmt.Where(g.pkColumn, statements.Plain(g.dialect.StringLiteral(g.rowName)))
	return w.WriteStatement(stmt)
}

// WriteAlignment moves the generator row past the values written as
// literals.
func (g *TableGenerator) WriteAlignment(w statements.Writer) error {
	if !g.used || g.relative {
		return nil
	}
	stmt := statements.NewUpdate(g.genTable)
	stmt.Set(g.valueCol, literalID(g.current))
	stmt.Where(g.pkColumn, statements.Plain(g.dialect.StringLiteral(g.rowName)))
	return w.WriteStatement(stmt)
}

// AssignedGenerator handles caller assigned identifiers: values are emitted
// as literals and nothing is allocated or realigned. CurrentValue tracks the
// highest value seen.
type AssignedGenerator struct {
	name    string
	current int64
}

// NewAssignedGenerator creates a generator for caller assigned ids.
func NewAssignedGenerator(name string) *AssignedGenerator {
	return &AssignedGenerator{name: name}
}

// Name returns the generator name.
func (g *AssignedGenerator) Name() string { return g.name }

// NextValue is never used for assigned ids; it returns the current value.
func (g *AssignedGenerator) NextValue() int64 { return g.current }

// Track records a caller assigned value.
func (g *AssignedGenerator) Track(id int64) {
	if id > g.current {
		g.current = id
	}
}

// CurrentValue returns the highest value seen.
func (g *AssignedGenerator) CurrentValue() int64 { return g.current }

// InsertExpression returns the literal id expression.
func (g *AssignedGenerator) InsertExpression(id int64) statements.ColumnExpression {
	return literalID(id)
}

// Expression returns the literal id expression.
func (g *AssignedGenerator) Expression(id int64, _ bool) statements.ColumnExpression {
	return literalID(id)
}

// CreatePreInsertStatements writes nothing.
func (g *AssignedGenerator) CreatePreInsertStatements(statements.Writer) error { return nil }

// WriteAlignment writes nothing.
func (g *AssignedGenerator) WriteAlignment(statements.Writer) error { return nil }
