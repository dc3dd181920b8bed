package generator

import (
	"sort"

	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// CollectionProperty maps a plural association or element collection. It
// contributes no column to the owning row; rows are written into the join
// table after the owner's insert, or the foreign side is updated when the
// association is mapped by the inverse side. Declared element order is
// preserved; an order column stores the position when declared.
type CollectionProperty struct {
	ctx   *Context
	owner *EntityType
	decl  *schema.Collection

	joinTable  *statements.Table
	joinCol    *statements.Column
	inverseCol *statements.Column
	elementCol *statements.Column
	orderCol   *statements.Column
}

// Name returns the attribute name.
func (p *CollectionProperty) Name() string { return p.decl.Name }

// IsRequired reports false, collections may be empty.
func (p *CollectionProperty) IsRequired() bool { return false }

// IsTableColumn reports false.
func (p *CollectionProperty) IsTableColumn() bool { return false }

// value reads the collection elements.
func (p *CollectionProperty) value(rec *schema.Record) []any {
	v := attrValue(rec, p.decl.Name, p.decl.Getter)
	switch v := v.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []*schema.Record:
		elems := make([]any, len(v))
		for i, r := range v {
			elems[i] = r
		}
		return elems
	}
	return []any{v}
}

// AddInsertExpression writes nothing into the owning row.
func (p *CollectionProperty) AddInsertExpression(*statements.Insert, *schema.Record) error {
	return nil
}

// CreatePreInsertStatements writes nothing.
func (p *CollectionProperty) CreatePreInsertStatements(statements.Writer, *schema.Record) error {
	return nil
}

// CreatePostInsertStatements writes the join table rows, or the foreign
// side updates for an inverse mapped association. Rows for elements that
// are not written yet are deferred until the element is persisted.
func (p *CollectionProperty) CreatePostInsertStatements(w statements.Writer, rec *schema.Record) error {
	for idx, elem := range p.value(rec) {
		target, ok := elem.(*schema.Record)
		if !ok {
			// Element collection value.
			if err := p.writeElementRow(w, rec, idx, elem); err != nil {
				return err
			}
			continue
		}
		td, err := p.ctx.Describe(target.Type())
		if err != nil {
			return err
		}
		if td.IsNew(target) {
			if err := td.MarkPendingUpdates(target, rec, p, []any{idx}); err != nil {
				return err
			}
			continue
		}
		if err := p.writeEntityRow(w, rec, idx, target); err != nil {
			return err
		}
	}
	return nil
}

// WritePendingStatement writes the row deferred for the element, now that
// the element is persisted.
func (p *CollectionProperty) WritePendingStatement(w statements.Writer, written, toUpdate *schema.Record, args []any) error {
	idx := 0
	if len(args) > 0 {
		if i, ok := args[0].(int); ok {
			idx = i
		}
	}
	return p.writeEntityRow(w, toUpdate, idx, written)
}

// writeEntityRow writes one join table row or foreign side update for an
// entity element.
func (p *CollectionProperty) writeEntityRow(w statements.Writer, owner *schema.Record, idx int, target *schema.Record) error {
	ot, err := p.ctx.Describe(owner.Type())
	if err != nil {
		return err
	}
	ownerRef, err := ot.EntityReference(owner, "", false)
	if err != nil {
		return err
	}
	td, err := p.ctx.Describe(target.Type())
	if err != nil {
		return err
	}
	if p.decl.MappedBy != "" {
		// Foreign key lives on the target entity.
		inverse, ok := td.Property(p.decl.MappedBy)
		if !ok {
			return NewModelError(p.owner.Name, p.decl.Name, "mappedBy names an unknown attribute", nil)
		}
		fk, ok := inverse.(*EntityProperty)
		if !ok || fk.Column() == nil {
			return NewModelError(p.owner.Name, p.decl.Name, "mappedBy does not name an owning association", nil)
		}
		targetID, err := td.EntityReference(target, "", true)
		if err != nil {
			return err
		}
		stmt := statements.NewUpdate(td.Table)
		stmt.Set(fk.Column(), ownerRef)
		if p.decl.OrderColumn != "" {
			stmt.Set(td.Table.Column(p.decl.OrderColumn), literalID(int64(idx)))
		}
		stmt.Where(td.rowKeyColumn(), targetID)
		return w.WriteStatement(stmt)
	}
	targetRef, err := td.EntityReference(target, "", false)
	if err != nil {
		return err
	}
	stmt := statements.NewInsert(p.joinTable)
	stmt.Set(p.joinCol, ownerRef)
	stmt.Set(p.inverseCol, targetRef)
	if p.orderCol != nil {
		stmt.Set(p.orderCol, literalID(int64(idx)))
	}
	return w.WriteStatement(stmt)
}

// writeElementRow writes one join table row for a primitive element.
func (p *CollectionProperty) writeElementRow(w statements.Writer, owner *schema.Record, idx int, elem any) error {
	ot, err := p.ctx.Describe(owner.Type())
	if err != nil {
		return err
	}
	ownerRef, err := ot.EntityReference(owner, "", false)
	if err != nil {
		return err
	}
	lit, err := statements.Literal(p.ctx.Dialect(), elem)
	if err != nil {
		return NewModelError(p.owner.Name, p.decl.Name, "cannot format element", err)
	}
	stmt := statements.NewInsert(p.joinTable)
	stmt.Set(p.joinCol, ownerRef)
	stmt.Set(p.elementCol, lit)
	if p.orderCol != nil {
		stmt.Set(p.orderCol, literalID(int64(idx)))
	}
	return w.WriteStatement(stmt)
}

// FindReferencedEntities returns the entity elements.
func (p *CollectionProperty) FindReferencedEntities(rec *schema.Record) []*schema.Record {
	var refs []*schema.Record
	for _, elem := range p.value(rec) {
		if r, ok := elem.(*schema.Record); ok {
			refs = append(refs, r)
		}
	}
	return refs
}

// Expression is not available for a collection.
func (p *CollectionProperty) Expression(*schema.Record, bool) (statements.ColumnExpression, error) {
	return nil, NewModelError(p.owner.Name, p.decl.Name, "no expression for a collection", nil)
}

// Predicate is not available for a collection.
func (p *CollectionProperty) Predicate(*schema.Record) (string, bool) { return "", false }

// MapProperty maps a keyed plural association. Rows are written into the
// join table after the owner's insert, keyed by the declared map key.
// Entries are emitted in key literal order so output is deterministic.
type MapProperty struct {
	ctx   *Context
	owner *EntityType
	decl  *schema.MapField

	joinTable *statements.Table
	joinCol   *statements.Column
	keyCol    *statements.Column
	valueCol  *statements.Column
}

// Name returns the attribute name.
func (p *MapProperty) Name() string { return p.decl.Name }

// IsRequired reports false.
func (p *MapProperty) IsRequired() bool { return false }

// IsTableColumn reports false.
func (p *MapProperty) IsTableColumn() bool { return false }

// mapEntry is one key/value pair with the key pre-rendered for ordering.
type mapEntry struct {
	keySQL string
	value  any
}

// entries returns the map entries ordered by key literal.
func (p *MapProperty) entries(rec *schema.Record) ([]mapEntry, error) {
	v := attrValue(rec, p.decl.Name, p.decl.Getter)
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[any]any)
	if !ok {
		return nil, NewModelError(p.owner.Name, p.decl.Name, "map attribute must hold map[any]any", nil)
	}
	entries := make([]mapEntry, 0, len(m))
	for k, val := range m {
		lit, err := statements.Literal(p.ctx.Dialect(), k)
		if err != nil {
			return nil, NewModelError(p.owner.Name, p.decl.Name, "cannot format map key", err)
		}
		entries = append(entries, mapEntry{keySQL: lit.SQL(), value: val})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].keySQL < entries[j].keySQL })
	return entries, nil
}

// AddInsertExpression writes nothing into the owning row.
func (p *MapProperty) AddInsertExpression(*statements.Insert, *schema.Record) error { return nil }

// CreatePreInsertStatements writes nothing.
func (p *MapProperty) CreatePreInsertStatements(statements.Writer, *schema.Record) error {
	return nil
}

// CreatePostInsertStatements writes the join table rows. Rows for entity
// values that are not written yet are deferred.
func (p *MapProperty) CreatePostInsertStatements(w statements.Writer, rec *schema.Record) error {
	entries, err := p.entries(rec)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if target, ok := e.value.(*schema.Record); ok {
			td, err := p.ctx.Describe(target.Type())
			if err != nil {
				return err
			}
			if td.IsNew(target) {
				if err := td.MarkPendingUpdates(target, rec, p, []any{e.keySQL}); err != nil {
					return err
				}
				continue
			}
		}
		if err := p.writeRow(w, rec, e.keySQL, e.value); err != nil {
			return err
		}
	}
	return nil
}

// WritePendingStatement writes the row deferred for the entity value.
func (p *MapProperty) WritePendingStatement(w statements.Writer, written, toUpdate *schema.Record, args []any) error {
	keySQL := ""
	if len(args) > 0 {
		if s, ok := args[0].(string); ok {
			keySQL = s
		}
	}
	return p.writeRow(w, toUpdate, keySQL, written)
}

// writeRow writes one join table row.
func (p *MapProperty) writeRow(w statements.Writer, owner *schema.Record, keySQL string, value any) error {
	ot, err := p.ctx.Describe(owner.Type())
	if err != nil {
		return err
	}
	ownerRef, err := ot.EntityReference(owner, "", false)
	if err != nil {
		return err
	}
	var valueExpr statements.ColumnExpression
	if target, ok := value.(*schema.Record); ok {
		td, err := p.ctx.Describe(target.Type())
		if err != nil {
			return err
		}
		valueExpr, err = td.EntityReference(target, "", false)
		if err != nil {
			return err
		}
	} else {
		valueExpr, err = statements.Literal(p.ctx.Dialect(), value)
		if err != nil {
			return NewModelError(p.owner.Name, p.decl.Name, "cannot format map value", err)
		}
	}
	stmt := statements.NewInsert(p.joinTable)
	stmt.Set(p.joinCol, ownerRef)
	stmt.Set(p.keyCol, statements.Plain(keySQL))
	stmt.Set(p.valueCol, valueExpr)
	return w.WriteStatement(stmt)
}

// FindReferencedEntities returns the entity values.
func (p *MapProperty) FindReferencedEntities(rec *schema.Record) []*schema.Record {
	entries, err := p.entries(rec)
	if err != nil {
		return nil
	}
	var refs []*schema.Record
	for _, e := range entries {
		if r, ok := e.value.(*schema.Record); ok {
			refs = append(refs, r)
		}
	}
	return refs
}

// Expression is not available for a map.
func (p *MapProperty) Expression(*schema.Record, bool) (statements.ColumnExpression, error) {
	return nil, NewModelError(p.owner.Name, p.decl.Name, "no expression for a map", nil)
}

// Predicate is not available for a map.
func (p *MapProperty) Predicate(*schema.Record) (string, bool) { return "", false }
