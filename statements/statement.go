package statements

import (
	"strings"

	"github.com/syssam/seedql/dialect"
)

// ColumnExpression is an SQL value expression for one column of a statement.
type ColumnExpression interface {
	// SQL returns the expression text.
	SQL() string
}

// Plain is a ColumnExpression holding raw SQL text.
type Plain string

// SQL returns the expression text.
func (p Plain) SQL() string { return string(p) }

// Null is the NULL expression.
const Null = Plain("NULL")

// Literal formats the given Go value as a literal expression of the dialect.
func Literal(d dialect.Dialect, v any) (ColumnExpression, error) {
	s, err := dialect.Literal(d, v)
	if err != nil {
		return nil, err
	}
	return Plain(s), nil
}

// Statement is one executable SQL statement.
type Statement interface {
	// SQL renders the statement for the given dialect, without a
	// terminator.
	SQL(d dialect.Dialect) string
}

// RawStatement is a Statement holding pre-rendered SQL text.
type RawStatement string

// SQL returns the statement text.
func (s RawStatement) SQL(dialect.Dialect) string { return string(s) }

// Insert builds an INSERT statement for one table. Columns keep the order in
// which their values were set, so output is deterministic.
type Insert struct {
	// Table the row is inserted into.
	Table *Table

	columns []*Column
	values  map[*Column]ColumnExpression
}

// NewInsert creates an empty INSERT statement for the table.
func NewInsert(t *Table) *Insert {
	return &Insert{
		Table:  t,
		values: make(map[*Column]ColumnExpression),
	}
}

// Set assigns the expression to the column. Setting a column twice replaces
// the previous expression but keeps the original position.
func (s *Insert) Set(c *Column, expr ColumnExpression) {
	if _, ok := s.values[c]; !ok {
		s.columns = append(s.columns, c)
	}
	s.values[c] = expr
}

// Expression returns the expression currently assigned to the column.
func (s *Insert) Expression(c *Column) (ColumnExpression, bool) {
	expr, ok := s.values[c]
	return expr, ok
}

// SQL renders the statement.
func (s *Insert) SQL(d dialect.Dialect) string {
	var cols, vals strings.Builder
	for i, c := range s.columns {
		if i > 0 {
			cols.WriteString(", ")
			vals.WriteString(", ")
		}
		cols.WriteString(c.Quoted(d))
		vals.WriteString(s.values[c].SQL())
	}
	return "INSERT INTO " + s.Table.Quoted(d) + " (" + cols.String() + ") VALUES (" + vals.String() + ")"
}

// Update builds an UPDATE statement for one table.
type Update struct {
	// Table the statement updates.
	Table *Table

	setColumns   []*Column
	setValues    map[*Column]ColumnExpression
	whereColumns []*Column
	whereValues  map[*Column]ColumnExpression
}

// NewUpdate creates an empty UPDATE statement for the table.
func NewUpdate(t *Table) *Update {
	return &Update{
		Table:       t,
		setValues:   make(map[*Column]ColumnExpression),
		whereValues: make(map[*Column]ColumnExpression),
	}
}

// Set assigns the expression to the column in the SET clause.
func (s *Update) Set(c *Column, expr ColumnExpression) {
	if _, ok := s.setValues[c]; !ok {
		s.setColumns = append(s.setColumns, c)
	}
	s.setValues[c] = expr
}

// Where adds an equality condition on the column.
func (s *Update) Where(c *Column, expr ColumnExpression) {
	if _, ok := s.whereValues[c]; !ok {
		s.whereColumns = append(s.whereColumns, c)
	}
	s.whereValues[c] = expr
}

// SQL renders the statement.
func (s *Update) SQL(d dialect.Dialect) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(s.Table.Quoted(d))
	b.WriteString(" SET ")
	for i, c := range s.setColumns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Quoted(d))
		b.WriteString(" = ")
		b.WriteString(s.setValues[c].SQL())
	}
	for i, c := range s.whereColumns {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(c.Quoted(d))
		b.WriteString(" = ")
		b.WriteString(s.whereValues[c].SQL())
	}
	return b.String()
}
