package generator

import (
	"strings"

	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// EmbeddedProperty maps an embedded value attribute. It owns the properties
// of the embeddable, built against the embedding entity's table, honoring
// the column overrides of the embedding site, and delegates all work to them
// with the embedded value as the receiver.
type EmbeddedProperty struct {
	ctx    *Context
	entity string
	decl   *schema.Embedded
	id     bool
	names  []string
	subs   map[string]Property
}

// Name returns the attribute name.
func (p *EmbeddedProperty) Name() string { return p.decl.Name }

// IsID reports whether the embedded value is the entity identifier.
func (p *EmbeddedProperty) IsID() bool { return p.id }

// SubProperties returns the embeddable's attribute names in declaration
// order.
func (p *EmbeddedProperty) SubProperties() []string { return p.names }

// SubProperty returns the property of one embeddable attribute.
func (p *EmbeddedProperty) SubProperty(name string) (Property, bool) {
	sub, ok := p.subs[name]
	return sub, ok
}

// IsRequired reports true if the embedded value is an identifier or any
// sub-property is required.
func (p *EmbeddedProperty) IsRequired() bool {
	if p.id {
		return true
	}
	for _, name := range p.names {
		if p.subs[name].IsRequired() {
			return true
		}
	}
	return false
}

// IsTableColumn reports true.
func (p *EmbeddedProperty) IsTableColumn() bool { return true }

// value reads the embedded value record.
func (p *EmbeddedProperty) value(rec *schema.Record) *schema.Record {
	v := attrValue(rec, p.decl.Name, p.decl.Getter)
	if v == nil {
		return nil
	}
	if r, ok := v.(*schema.Record); ok {
		return r
	}
	return nil
}

// AddInsertExpression delegates to the sub-properties with the embedded
// value as receiver.
func (p *EmbeddedProperty) AddInsertExpression(stmt *statements.Insert, rec *schema.Record) error {
	v := p.value(rec)
	if v == nil {
		if p.IsRequired() {
			return NewModelError(p.entity, p.decl.Name, "missing required embedded value", nil)
		}
		return nil
	}
	for _, name := range p.names {
		if err := p.subs[name].AddInsertExpression(stmt, v); err != nil {
			return err
		}
	}
	return nil
}

// CreatePreInsertStatements delegates to the sub-properties.
func (p *EmbeddedProperty) CreatePreInsertStatements(w statements.Writer, rec *schema.Record) error {
	v := p.value(rec)
	for _, name := range p.names {
		if err := p.subs[name].CreatePreInsertStatements(w, v); err != nil {
			return err
		}
	}
	return nil
}

// CreatePostInsertStatements delegates to the sub-properties.
func (p *EmbeddedProperty) CreatePostInsertStatements(w statements.Writer, rec *schema.Record) error {
	v := p.value(rec)
	for _, name := range p.names {
		if err := p.subs[name].CreatePostInsertStatements(w, v); err != nil {
			return err
		}
	}
	return nil
}

// FindReferencedEntities returns the union over the sub-properties.
func (p *EmbeddedProperty) FindReferencedEntities(rec *schema.Record) []*schema.Record {
	v := p.value(rec)
	if v == nil {
		return nil
	}
	var refs []*schema.Record
	for _, name := range p.names {
		refs = append(refs, p.subs[name].FindReferencedEntities(v)...)
	}
	return refs
}

// Expression is not available for a composite value.
func (p *EmbeddedProperty) Expression(*schema.Record, bool) (statements.ColumnExpression, error) {
	return nil, NewModelError(p.entity, p.decl.Name, "no single expression for a composite value", nil)
}

// Predicate conjoins the predicates of all sub-properties.
func (p *EmbeddedProperty) Predicate(rec *schema.Record) (string, bool) {
	if len(p.names) == 0 {
		return "", false
	}
	v := p.value(rec)
	if v == nil {
		return "", false
	}
	var parts []string
	for _, name := range p.names {
		part, ok := p.subs[name].Predicate(v)
		if !ok {
			return "", false
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, " AND ") + ")", true
}
