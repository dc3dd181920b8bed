package generator

import (
	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// AccessStyle is how attribute values are read from a record.
type AccessStyle int

const (
	// FieldAccess reads attributes from the record value map.
	FieldAccess AccessStyle = iota
	// MethodAccess reads attributes through registered getter functions.
	MethodAccess
)

// Property describes one persistent attribute of an entity. Each variant
// knows how to contribute to an INSERT and how to emit statements around it.
type Property interface {
	// Name returns the attribute name.
	Name() string
	// IsRequired reports whether the attribute must have a value.
	IsRequired() bool
	// IsTableColumn reports whether the property contributes a column to
	// the entity's own row.
	IsTableColumn() bool
	// AddInsertExpression contributes the attribute's column values to
	// the INSERT of the record.
	AddInsertExpression(stmt *statements.Insert, rec *schema.Record) error
	// CreatePreInsertStatements writes statements needed before the
	// record's row.
	CreatePreInsertStatements(w statements.Writer, rec *schema.Record) error
	// CreatePostInsertStatements writes statements needed after the
	// record's row.
	CreatePostInsertStatements(w statements.Writer, rec *schema.Record) error
	// FindReferencedEntities returns the other entity records this
	// property reads from the record.
	FindReferencedEntities(rec *schema.Record) []*schema.Record
	// Expression returns the attribute's value expression.
	Expression(rec *schema.Record, forWhere bool) (statements.ColumnExpression, error)
	// Predicate returns an SQL condition matching the attribute's value,
	// or ok == false if a component is null.
	Predicate(rec *schema.Record) (string, bool)
}

// SingularProperty is a property stored in exactly one column.
type SingularProperty interface {
	Property
	// Column returns the column the property is stored in.
	Column() *statements.Column
}

// PendingProperty is a property that can defer a statement until another
// entity is written.
type PendingProperty interface {
	Property
	// WritePendingStatement writes the statement deferred for toUpdate,
	// now that written is persisted.
	WritePendingStatement(w statements.Writer, written, toUpdate *schema.Record, args []any) error
}

// attrValue reads an attribute, through the registered getter if one was
// declared.
func attrValue(rec *schema.Record, name string, getter func(*schema.Record) any) any {
	if rec == nil {
		return nil
	}
	if getter != nil {
		return getter(rec)
	}
	return rec.Get(name)
}

// PrimitiveProperty maps one primitive attribute to one column.
type PrimitiveProperty struct {
	ctx    *Context
	entity string
	field  *schema.Field
	column *statements.Column
}

func newPrimitiveProperty(ctx *Context, entity string, f *schema.Field, column *statements.Column) *PrimitiveProperty {
	return &PrimitiveProperty{ctx: ctx, entity: entity, field: f, column: column}
}

// Name returns the attribute name.
func (p *PrimitiveProperty) Name() string { return p.field.Name }

// Column returns the mapped column.
func (p *PrimitiveProperty) Column() *statements.Column { return p.column }

// IsRequired reports the NOT NULL declaration.
func (p *PrimitiveProperty) IsRequired() bool { return p.field.Required }

// IsTableColumn reports true.
func (p *PrimitiveProperty) IsTableColumn() bool { return true }

// value reads the attribute from the record.
func (p *PrimitiveProperty) value(rec *schema.Record) any {
	return attrValue(rec, p.field.Name, p.field.Getter)
}

// AddInsertExpression adds the column value. A nil value on a required
// attribute is a ModelError; a nil optional value omits the column.
func (p *PrimitiveProperty) AddInsertExpression(stmt *statements.Insert, rec *schema.Record) error {
	v := p.value(rec)
	if v == nil {
		if p.field.Required {
			return NewModelError(p.entity, p.field.Name, "missing value for required attribute", nil)
		}
		return nil
	}
	expr, err := statements.Literal(p.ctx.Dialect(), v)
	if err != nil {
		return NewModelError(p.entity, p.field.Name, "cannot format value", err)
	}
	stmt.Set(p.column, expr)
	return nil
}

// CreatePreInsertStatements writes nothing.
func (p *PrimitiveProperty) CreatePreInsertStatements(statements.Writer, *schema.Record) error {
	return nil
}

// CreatePostInsertStatements writes nothing.
func (p *PrimitiveProperty) CreatePostInsertStatements(statements.Writer, *schema.Record) error {
	return nil
}

// FindReferencedEntities returns nothing.
func (p *PrimitiveProperty) FindReferencedEntities(*schema.Record) []*schema.Record { return nil }

// Expression returns the literal value expression.
func (p *PrimitiveProperty) Expression(rec *schema.Record, _ bool) (statements.ColumnExpression, error) {
	v := p.value(rec)
	if v == nil {
		return nil, NewModelError(p.entity, p.field.Name, "no value", nil)
	}
	expr, err := statements.Literal(p.ctx.Dialect(), v)
	if err != nil {
		return nil, NewModelError(p.entity, p.field.Name, "cannot format value", err)
	}
	return expr, nil
}

// Predicate matches the column against the attribute value.
func (p *PrimitiveProperty) Predicate(rec *schema.Record) (string, bool) {
	v := p.value(rec)
	if v == nil {
		return "", false
	}
	lit, err := dialectLiteral(p.ctx, v)
	if err != nil {
		return "", false
	}
	return p.column.Quoted(p.ctx.Dialect()) + " = " + lit, true
}

// VersionProperty maps the optimistic lock attribute. It behaves like a
// primitive on insert, starting at 0 when no value was provided.
type VersionProperty struct {
	PrimitiveProperty
}

func newVersionProperty(ctx *Context, entity string, f *schema.Field, column *statements.Column) *VersionProperty {
	return &VersionProperty{PrimitiveProperty{ctx: ctx, entity: entity, field: f, column: column}}
}

// AddInsertExpression adds the version value, defaulting to 0.
func (p *VersionProperty) AddInsertExpression(stmt *statements.Insert, rec *schema.Record) error {
	if p.value(rec) == nil {
		stmt.Set(p.column, statements.Plain("0"))
		return nil
	}
	return p.PrimitiveProperty.AddInsertExpression(stmt, rec)
}

// GeneratedIDProperty maps a generated identifier attribute. The value is
// allocated from the attached IDGenerator when the row is inserted.
type GeneratedIDProperty struct {
	ctx      *Context
	entity   string
	field    *schema.Field
	column   *statements.Column
	gen      IDGenerator
	assigned bool
	// refs marks records whose id denotes an already existing row rather
	// than a slot to be assigned.
	refs map[*schema.Record]struct{}
}

func newGeneratedIDProperty(ctx *Context, entity string, f *schema.Field, column *statements.Column, gen IDGenerator) *GeneratedIDProperty {
	return &GeneratedIDProperty{
		ctx:      ctx,
		entity:   entity,
		field:    f,
		column:   column,
		gen:      gen,
		assigned: f.Generated == schema.GenerateAssigned,
		refs:     make(map[*schema.Record]struct{}),
	}
}

// Name returns the attribute name.
func (p *GeneratedIDProperty) Name() string { return p.field.Name }

// Column returns the id column.
func (p *GeneratedIDProperty) Column() *statements.Column { return p.column }

// Generator returns the attached id generator.
func (p *GeneratedIDProperty) Generator() IDGenerator { return p.gen }

// IsRequired reports true.
func (p *GeneratedIDProperty) IsRequired() bool { return true }

// IsTableColumn reports true.
func (p *GeneratedIDProperty) IsTableColumn() bool { return true }

// value returns the id value, or 0, false when unset.
func (p *GeneratedIDProperty) value(rec *schema.Record) (int64, bool) {
	v := attrValue(rec, p.field.Name, p.field.Getter)
	switch v := v.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// IsNew reports whether the record has no identifier yet. The id value
// alone is not authoritative: the descriptor's state map resolves records
// whose first generated value was 0 and caller assigned ids.
func (p *GeneratedIDProperty) IsNew(rec *schema.Record) bool {
	if _, ok := p.refs[rec]; ok {
		return false
	}
	_, ok := p.value(rec)
	return !ok
}

// MarkReference marks the record's id as denoting an existing row.
func (p *GeneratedIDProperty) MarkReference(rec *schema.Record) {
	p.refs[rec] = struct{}{}
}

// IsReference reports whether the record was marked as an existing row.
func (p *GeneratedIDProperty) IsReference(rec *schema.Record) bool {
	_, ok := p.refs[rec]
	return ok
}

// AddInsertExpression allocates the next id, stores it on the record and
// adds the insert expression. For identity columns nothing is added. For
// assigned ids the caller provided value is emitted.
func (p *GeneratedIDProperty) AddInsertExpression(stmt *statements.Insert, rec *schema.Record) error {
	var id int64
	if p.assigned {
		v, ok := p.value(rec)
		if !ok {
			return NewModelError(p.entity, p.field.Name, "missing assigned id", nil)
		}
		id = v
		p.gen.(*AssignedGenerator).Track(id)
	} else {
		id = p.gen.NextValue()
		rec.Set(p.field.Name, id)
	}
	if expr := p.gen.InsertExpression(id); expr != nil {
		stmt.Set(p.column, expr)
	}
	return nil
}

// CreatePreInsertStatements delegates to the generator.
func (p *GeneratedIDProperty) CreatePreInsertStatements(w statements.Writer, _ *schema.Record) error {
	return p.gen.CreatePreInsertStatements(w)
}

// CreatePostInsertStatements writes nothing; state handling lives on the
// descriptor.
func (p *GeneratedIDProperty) CreatePostInsertStatements(statements.Writer, *schema.Record) error {
	return nil
}

// FindReferencedEntities returns nothing.
func (p *GeneratedIDProperty) FindReferencedEntities(*schema.Record) []*schema.Record { return nil }

// Expression returns the expression for the record's id.
func (p *GeneratedIDProperty) Expression(rec *schema.Record, forWhere bool) (statements.ColumnExpression, error) {
	id, ok := p.value(rec)
	if !ok {
		return nil, NewModelError(p.entity, p.field.Name, "no id value", nil)
	}
	return p.gen.Expression(id, forWhere), nil
}

// Predicate matches the id column against the record's id.
func (p *GeneratedIDProperty) Predicate(rec *schema.Record) (string, bool) {
	id, ok := p.value(rec)
	if !ok {
		return "", false
	}
	return p.column.Quoted(p.ctx.Dialect()) + " = " + p.gen.Expression(id, true).SQL(), true
}

// dialectLiteral formats a value for the context's dialect.
func dialectLiteral(ctx *Context, v any) (string, error) {
	expr, err := statements.Literal(ctx.Dialect(), v)
	if err != nil {
		return "", err
	}
	return expr.SQL(), nil
}
