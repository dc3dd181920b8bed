package generator

import (
	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// EntityProperty maps a singular association to another entity. On insert
// it writes the referenced entity's id expression when the target is
// already persisted, or NULL plus a deferred UPDATE when the target is
// still unwritten.
type EntityProperty struct {
	ctx    *Context
	owner  *EntityType
	ref    *schema.Reference
	column *statements.Column
}

// Name returns the attribute name.
func (p *EntityProperty) Name() string { return p.ref.Name }

// Column returns the foreign key column, nil on the inverse side.
func (p *EntityProperty) Column() *statements.Column { return p.column }

// IsRequired reports the NOT NULL declaration.
func (p *EntityProperty) IsRequired() bool { return p.ref.Required }

// IsTableColumn reports whether the association owns a column; the inverse
// side of a one-to-one does not.
func (p *EntityProperty) IsTableColumn() bool { return p.ref.MappedBy == "" }

// value reads the referenced record.
func (p *EntityProperty) value(rec *schema.Record) *schema.Record {
	v := attrValue(rec, p.ref.Name, p.ref.Getter)
	if v == nil {
		return nil
	}
	if r, ok := v.(*schema.Record); ok {
		return r
	}
	return nil
}

// target returns the descriptor of the referenced record, honoring its
// dynamic type for polymorphic references.
func (p *EntityProperty) target(v *schema.Record) (*EntityType, error) {
	name := p.ref.Target
	if v != nil && v.Type() != "" {
		name = v.Type()
	}
	return p.ctx.Describe(name)
}

// AddInsertExpression writes the reference expression, or NULL plus a
// pending update when the target is not written yet.
func (p *EntityProperty) AddInsertExpression(stmt *statements.Insert, rec *schema.Record) error {
	if p.ref.MappedBy != "" {
		return nil
	}
	v := p.value(rec)
	if v == nil {
		if p.ref.Required {
			return NewModelError(p.owner.Name, p.ref.Name, "missing value for required association", nil)
		}
		return nil
	}
	td, err := p.target(v)
	if err != nil {
		return err
	}
	if td.IsNew(v) {
		if rec.Type() == "" {
			return NewModelError(p.owner.Name, p.ref.Name,
				"association inside an embedded value must target an already written entity", nil)
		}
		stmt.Set(p.column, statements.Null)
		return td.MarkPendingUpdates(v, rec, p, nil)
	}
	expr, err := td.EntityReference(v, p.ref.IDField, false)
	if err != nil {
		return err
	}
	stmt.Set(p.column, expr)
	return nil
}

// CreatePreInsertStatements writes nothing.
func (p *EntityProperty) CreatePreInsertStatements(statements.Writer, *schema.Record) error {
	return nil
}

// CreatePostInsertStatements writes nothing; deferred updates are flushed
// by the target's descriptor.
func (p *EntityProperty) CreatePostInsertStatements(statements.Writer, *schema.Record) error {
	return nil
}

// WritePendingStatement updates the foreign key of toUpdate now that the
// referenced entity is written.
func (p *EntityProperty) WritePendingStatement(w statements.Writer, written, toUpdate *schema.Record, _ []any) error {
	td, err := p.target(written)
	if err != nil {
		return err
	}
	refExpr, err := td.EntityReference(written, p.ref.IDField, false)
	if err != nil {
		return err
	}
	ot, err := p.ctx.Describe(toUpdate.Type())
	if err != nil {
		return err
	}
	idExpr, err := ot.EntityReference(toUpdate, "", true)
	if err != nil {
		return err
	}
	keyColumn := p.owner.rowKeyColumn()
	if keyColumn == nil {
		return NewModelError(p.owner.Name, p.ref.Name,
			"deferred updates need a singular id on the owning entity", nil)
	}
	stmt := statements.NewUpdate(p.owner.Table)
	stmt.Set(p.column, refExpr)
	stmt.Where(keyColumn, idExpr)
	return w.WriteStatement(stmt)
}

// FindReferencedEntities returns the referenced record.
func (p *EntityProperty) FindReferencedEntities(rec *schema.Record) []*schema.Record {
	if v := p.value(rec); v != nil {
		return []*schema.Record{v}
	}
	return nil
}

// Expression returns the reference expression for the target.
func (p *EntityProperty) Expression(rec *schema.Record, forWhere bool) (statements.ColumnExpression, error) {
	v := p.value(rec)
	if v == nil {
		return nil, NewModelError(p.owner.Name, p.ref.Name, "no value", nil)
	}
	td, err := p.target(v)
	if err != nil {
		return nil, err
	}
	return td.EntityReference(v, p.ref.IDField, forWhere)
}

// Predicate matches the foreign key column against the target's reference
// expression.
func (p *EntityProperty) Predicate(rec *schema.Record) (string, bool) {
	if p.column == nil {
		return "", false
	}
	v := p.value(rec)
	if v == nil {
		return "", false
	}
	td, err := p.target(v)
	if err != nil {
		return "", false
	}
	if td.IsNew(v) {
		return "", false
	}
	expr, err := td.EntityReference(v, p.ref.IDField, true)
	if err != nil {
		return "", false
	}
	return p.column.Quoted(p.ctx.Dialect()) + " = " + expr.SQL(), true
}
