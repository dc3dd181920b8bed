package generator

import (
	"strconv"
	"strings"

	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// UniquePropertyQuality ranks how reliably a unique key alternate
// identifies a row. Lower values are better.
type UniquePropertyQuality int

// Quality ranks, best to worst.
const (
	// QualityOnlyRequiredPrimitives accepts only required primitive
	// columns.
	QualityOnlyRequiredPrimitives UniquePropertyQuality = iota
	// QualityOnlyRequired accepts required columns of any kind.
	QualityOnlyRequired
	// QualityOnlyPrimitives accepts primitive columns that may be null.
	QualityOnlyPrimitives
	// QualityAllowsNulls accepts any singular column.
	QualityAllowsNulls
)

// ParseUniquePropertyQuality reads a quality rank from its setting name.
func ParseUniquePropertyQuality(s string) (UniquePropertyQuality, error) {
	switch s {
	case "", "onlyRequiredPrimitives":
		return QualityOnlyRequiredPrimitives, nil
	case "onlyRequired":
		return QualityOnlyRequired, nil
	case "onlyPrimitives":
		return QualityOnlyPrimitives, nil
	case "allowsNulls":
		return QualityAllowsNulls, nil
	}
	return 0, NewModelError("", "", "unknown unique property quality "+strconv.Quote(s), nil)
}

// matchingQuality ranks a singular property as a unique key component.
func matchingQuality(p SingularProperty) (UniquePropertyQuality, bool) {
	switch p := p.(type) {
	case *VersionProperty:
		return 0, false
	case *GeneratedIDProperty:
		return 0, false
	case *PrimitiveProperty:
		if p.IsRequired() {
			return QualityOnlyRequiredPrimitives, true
		}
		return QualityOnlyPrimitives, true
	case *EntityProperty:
		if p.Column() == nil {
			return 0, false
		}
		if p.IsRequired() {
			return QualityOnlyRequired, true
		}
		return QualityAllowsNulls, true
	}
	return 0, false
}

// EntityType is the materialized metadata of one declared entity: tables,
// inheritance, discriminator, identifier, unique key alternates and the
// property table. It also tracks the write state of the entity's records.
type EntityType struct {
	ctx  *Context
	decl *schema.Entity

	// Name is the entity name.
	Name string
	// Table is the main table of the entity.
	Table *statements.Table
	// AccessStyle is how attribute values are read.
	AccessStyle AccessStyle
	// Inheritance is the resolved strategy of the hierarchy.
	Inheritance schema.InheritanceType
	// HierarchyRoot is the root descriptor of the hierarchy, the
	// descriptor itself for roots.
	HierarchyRoot *EntityType
	// JoinedParent is the next ancestor with the Joined strategy, nil
	// otherwise.
	JoinedParent *EntityType
	// DiscriminatorColumn and Discriminator are set when the hierarchy
	// writes a discriminator.
	DiscriminatorColumn *statements.Column
	Discriminator       statements.ColumnExpression
	// PrimaryKeyJoinColumn is the id column of a Joined child.
	PrimaryKeyJoinColumn *statements.Column
	// IDProperty contains the identifier; for Joined children it is the
	// parent's id property.
	IDProperty Property
	// UniqueProperties is the best unique key alternate found, with its
	// quality rank.
	UniqueProperties []SingularProperty
	UniqueQuality    UniquePropertyQuality

	parent    *EntityType
	uniqueSet bool
	propNames []string
	props     map[string]Property
	states    map[any]*entityState

	attributeOverrides   map[string]string
	associationOverrides map[string]string
}

// Properties returns the entity's own properties (without the id and
// without properties of a Joined parent) in declaration order.
func (t *EntityType) Properties() []Property {
	props := make([]Property, 0, len(t.propNames))
	for _, name := range t.propNames {
		props = append(props, t.props[name])
	}
	return props
}

// Property returns the named property.
func (t *EntityType) Property(name string) (Property, bool) {
	p, ok := t.props[name]
	return p, ok
}

// AllProperties returns the id property and all properties, including the
// ones inherited from Joined ancestors.
func (t *EntityType) AllProperties() []Property {
	all := []Property{t.IDProperty}
	for _, level := range t.tableChain() {
		all = append(all, level.Properties()...)
	}
	return all
}

// tableChain returns the descriptors contributing a table row to one
// record of this entity, root first.
func (t *EntityType) tableChain() []*EntityType {
	if t.JoinedParent == nil {
		return []*EntityType{t}
	}
	return append(t.JoinedParent.tableChain(), t)
}

// rowKeyColumn returns the column identifying one row of the entity's own
// table, nil for composite identifiers.
func (t *EntityType) rowKeyColumn() *statements.Column {
	if t.PrimaryKeyJoinColumn != nil {
		return t.PrimaryKeyJoinColumn
	}
	if p, ok := t.IDProperty.(SingularProperty); ok {
		return p.Column()
	}
	return nil
}

// build fills the descriptor from its declaration. It runs after the shell
// was cached, so that cyclic references between entities resolve to the
// shell instead of recursing forever.
func (t *EntityType) build() error {
	decl := t.decl
	naming := t.ctx.model.Naming

	tableName := decl.Table
	if tableName == "" {
		tableName = naming.Apply(decl.Name)
	}
	t.Table = t.ctx.ResolveTable(tableName)

	t.mergeOverrides()

	t.Inheritance = decl.Inheritance
	t.HierarchyRoot = t
	if decl.Parent != "" {
		if err := t.buildInheritance(); err != nil {
			return err
		}
	} else if t.Inheritance == schema.NoInheritance &&
		(decl.DiscriminatorValue != "" || decl.DiscriminatorColumn != "") {
		// A discriminator declaration implies single table inheritance,
		// even before any subclass is registered.
		t.Inheritance = schema.SingleTable
	}

	if err := t.buildDiscriminator(); err != nil {
		return err
	}

	if t.JoinedParent == nil {
		if err := t.buildIDProperty(); err != nil {
			return err
		}
	} else {
		t.IDProperty = t.JoinedParent.IDProperty
	}
	if t.IDProperty == nil {
		return NewModelError(t.Name, "", "no id found", nil)
	}

	if err := t.buildProperties(); err != nil {
		return err
	}

	return t.buildUniqueConstraints()
}

// mergeOverrides collects attribute and association overrides of the
// entity and every ancestor, nearest declaration winning.
func (t *EntityType) mergeOverrides() {
	t.attributeOverrides = make(map[string]string)
	t.associationOverrides = make(map[string]string)
	for _, d := range t.ancestry("") {
		for name, column := range d.AttributeOverrides {
			t.attributeOverrides[name] = column
		}
		for name, column := range d.AssociationOverrides {
			t.associationOverrides[name] = column
		}
	}
}

// ancestry returns the declaration chain root first, stopping below the
// named ancestor (exclusive), or at the root when stop is empty.
func (t *EntityType) ancestry(stop string) []*schema.Entity {
	var chain []*schema.Entity
	for d := t.decl; d != nil; {
		chain = append(chain, d)
		if d.Parent == "" || d.Parent == stop {
			break
		}
		next, ok := t.ctx.model.Entity(d.Parent)
		if !ok {
			break
		}
		d = next
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// buildInheritance resolves the parent descriptor and the strategy of the
// hierarchy.
func (t *EntityType) buildInheritance() error {
	parent, err := t.ctx.Describe(t.decl.Parent)
	if err != nil {
		return err
	}
	t.parent = parent

	// A parent without a declared strategy becomes a single table root
	// the moment the first subclass shows up.
	if parent.Inheritance == schema.NoInheritance {
		parent.Inheritance = schema.SingleTable
		if err := parent.buildDiscriminator(); err != nil {
			return err
		}
	}

	if t.Inheritance == schema.NoInheritance {
		t.Inheritance = parent.Inheritance
		t.HierarchyRoot = parent.HierarchyRoot
	} else if parent.Inheritance != schema.TablePerClass {
		t.HierarchyRoot = parent.HierarchyRoot
	}

	if parent.Inheritance == schema.Joined {
		t.JoinedParent = parent
		idProp, ok := parent.IDProperty.(SingularProperty)
		if !ok {
			return NewModelError(t.Name, "", "JOINED inheritance requires a singular id on "+parent.Name, nil)
		}
		name := t.decl.PrimaryKeyJoinColumn
		if name == "" {
			name = idProp.Column().Name
		}
		t.PrimaryKeyJoinColumn = t.Table.Column(name)
	} else {
		if parent.Inheritance == schema.SingleTable {
			t.Table = parent.Table
		}
		t.JoinedParent = parent.JoinedParent
		t.PrimaryKeyJoinColumn = parent.PrimaryKeyJoinColumn
	}
	return nil
}

// buildDiscriminator computes the discriminator column and expression.
// A discriminator applies to single table hierarchies, and to joined
// hierarchies when declared or demanded by the dialect.
func (t *EntityType) buildDiscriminator() error {
	if t.Inheritance != schema.SingleTable && t.Inheritance != schema.Joined {
		return nil
	}
	root := t.HierarchyRoot
	declared := root.decl.DiscriminatorColumn != ""
	if !declared && t.Inheritance == schema.Joined && !t.ctx.dialect.NeedsJoinedDiscriminator() {
		return nil
	}
	name := root.decl.DiscriminatorColumn
	if name == "" {
		name = "DTYPE"
	}
	t.DiscriminatorColumn = root.Table.Column(name)

	value := t.decl.DiscriminatorValue
	switch root.decl.DiscriminatorType {
	case schema.DiscriminatorInteger:
		var n int64
		if value == "" {
			n = int64(stableHash(t.Name))
		} else {
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return NewModelError(t.Name, "", "integer discriminator value "+strconv.Quote(value), err)
			}
			n = parsed
		}
		t.Discriminator = statements.Plain(strconv.FormatInt(n, 10))
	case schema.DiscriminatorChar:
		if value == "" {
			value = t.Name
		}
		if value == "" {
			return NewModelError(t.Name, "", "missing discriminator value", nil)
		}
		r := []rune(value)
		t.Discriminator = statements.Plain(t.ctx.dialect.StringLiteral(string(r[:1])))
	default:
		if value == "" {
			value = t.Name
		}
		if value == "" {
			return NewModelError(t.Name, "", "missing discriminator value", nil)
		}
		maxLen := root.decl.DiscriminatorLength
		if maxLen <= 0 {
			maxLen = 31
		}
		if r := []rune(value); len(r) > maxLen {
			value = string(r[:maxLen])
		}
		t.Discriminator = statements.Plain(t.ctx.dialect.StringLiteral(value))
	}
	return nil
}

// stableHash is a 31 based 32-bit hash of the entity name, bit stable
// across runs.
func stableHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = 31*h + int32(r)
	}
	return h
}

// buildIDProperty discovers the identifier of a hierarchy root, or inherits
// it from a non-joined parent.
func (t *EntityType) buildIDProperty() error {
	decl := t.decl
	switch {
	case decl.EmbeddedID != nil:
		p, err := t.buildEmbeddedProperty(decl.EmbeddedID, true)
		if err != nil {
			return err
		}
		t.IDProperty = p
	case decl.ID != nil:
		p, err := t.buildID(decl.ID)
		if err != nil {
			return err
		}
		t.IDProperty = p
	case t.parent != nil:
		if t.Inheritance == schema.TablePerClass {
			// Every concrete class owns a full table, the id column
			// included.
			idDecl := t.findIDDecl()
			if idDecl == nil {
				return NewModelError(t.Name, "", "no id found in hierarchy", nil)
			}
			p, err := t.buildID(idDecl)
			if err != nil {
				return err
			}
			t.IDProperty = p
			return nil
		}
		t.IDProperty = t.parent.IDProperty
	}
	return nil
}

// findIDDecl walks the ancestry for an id declaration.
func (t *EntityType) findIDDecl() *schema.Field {
	for d := t.decl; d != nil; {
		if d.ID != nil {
			return d.ID
		}
		if d.Parent == "" {
			return nil
		}
		next, ok := t.ctx.model.Entity(d.Parent)
		if !ok {
			return nil
		}
		d = next
	}
	return nil
}

// buildID builds the identifier property of one id field.
func (t *EntityType) buildID(f *schema.Field) (Property, error) {
	column := t.fieldColumn(f)
	if f.Generated == schema.GenerateNone {
		// A caller assigned id is always required.
		idField := *f
		idField.Required = true
		return newPrimitiveProperty(t.ctx, t.Name, &idField, column), nil
	}
	gen, err := t.ctx.generatorFor(f, t.Table, column)
	if err != nil {
		return nil, err
	}
	return newGeneratedIDProperty(t.ctx, t.Name, f, column, gen), nil
}

// fieldColumn resolves the column of a primitive field, honoring attribute
// overrides and the naming strategy.
func (t *EntityType) fieldColumn(f *schema.Field) *statements.Column {
	name := t.attributeOverrides[f.Name]
	if name == "" {
		name = f.Column
	}
	if name == "" {
		name = t.ctx.model.Naming.Apply(f.Name)
	}
	return t.Table.Column(name)
}

// buildProperties discovers all remaining properties by walking the
// declaration chain up to, but excluding, the Joined parent.
func (t *EntityType) buildProperties() error {
	stop := ""
	if t.JoinedParent != nil {
		stop = t.JoinedParent.Name
	}
	for _, d := range t.ancestry(stop) {
		if d.Name == stop {
			continue
		}
		for _, f := range d.Fields {
			if f.Getter != nil {
				t.AccessStyle = MethodAccess
			}
			p := t.buildField(f)
			t.addProperty(p)
			t.considerUnique(p, f.Unique)
		}
		for _, e := range d.Embedded {
			p, err := t.buildEmbeddedProperty(e, false)
			if err != nil {
				return err
			}
			t.addProperty(p)
		}
		for _, r := range d.References {
			p := t.buildReference(r)
			t.addProperty(p)
			t.considerUnique(p, r.Unique && r.MappedBy == "")
		}
		for _, cl := range d.Collections {
			t.addProperty(t.buildCollection(cl))
		}
		for _, m := range d.Maps {
			t.addProperty(t.buildMap(m))
		}
	}
	return nil
}

func (t *EntityType) addProperty(p Property) {
	t.propNames = append(t.propNames, p.Name())
	t.props[p.Name()] = p
}

// buildField builds a primitive or version property.
func (t *EntityType) buildField(f *schema.Field) SingularProperty {
	column := t.fieldColumn(f)
	if f.Version {
		return newVersionProperty(t.ctx, t.Name, f, column)
	}
	return newPrimitiveProperty(t.ctx, t.Name, f, column)
}

// referenceColumn resolves the foreign key column of a reference.
func (t *EntityType) referenceColumn(r *schema.Reference, overrides map[string]string, prefix string) *statements.Column {
	if r.MappedBy != "" {
		return nil
	}
	name := t.associationOverrides[prefix+r.Name]
	if name == "" && overrides != nil {
		name = overrides[r.Name]
	}
	if name == "" {
		name = r.Column
	}
	if name == "" {
		name = t.ctx.model.Naming.Apply(r.Name) + "_id"
	}
	return t.Table.Column(name)
}

// buildReference builds a singular association property.
func (t *EntityType) buildReference(r *schema.Reference) *EntityProperty {
	if r.Getter != nil {
		t.AccessStyle = MethodAccess
	}
	return &EntityProperty{
		ctx:    t.ctx,
		owner:  t,
		ref:    r,
		column: t.referenceColumn(r, nil, ""),
	}
}

// buildEmbeddedProperty builds an embedded property, with the sub
// properties mapped onto the embedding entity's table.
func (t *EntityType) buildEmbeddedProperty(e *schema.Embedded, id bool) (*EmbeddedProperty, error) {
	p := &EmbeddedProperty{
		ctx:    t.ctx,
		entity: t.Name,
		decl:   e,
		id:     id,
		subs:   make(map[string]Property),
	}
	prefix := e.Name + "."
	for _, f := range e.Fields {
		name := e.ColumnOverrides[f.Name]
		if name == "" {
			name = t.attributeOverrides[prefix+f.Name]
		}
		if name == "" {
			name = f.Column
		}
		if name == "" {
			name = t.ctx.model.Naming.Apply(f.Name)
		}
		column := t.Table.Column(name)
		var sub Property
		if f.Version {
			sub = newVersionProperty(t.ctx, t.Name, f, column)
		} else {
			sub = newPrimitiveProperty(t.ctx, t.Name, f, column)
		}
		p.names = append(p.names, f.Name)
		p.subs[f.Name] = sub
	}
	for _, r := range e.References {
		sub := &EntityProperty{
			ctx:    t.ctx,
			owner:  t,
			ref:    r,
			column: t.referenceColumn(r, e.ColumnOverrides, prefix),
		}
		p.names = append(p.names, r.Name)
		p.subs[r.Name] = sub
	}
	return p, nil
}

// buildCollection builds a plural association property.
func (t *EntityType) buildCollection(c *schema.Collection) *CollectionProperty {
	naming := t.ctx.model.Naming
	p := &CollectionProperty{ctx: t.ctx, owner: t, decl: c}
	if c.MappedBy != "" {
		return p
	}
	jtName := c.JoinTable
	if jtName == "" {
		jtName = t.Table.Name + "_" + naming.Apply(c.Name)
	}
	p.joinTable = t.ctx.ResolveTable(jtName)
	joinCol := c.JoinColumn
	if joinCol == "" {
		joinCol = naming.Apply(t.Name) + "_id"
	}
	p.joinCol = p.joinTable.Column(joinCol)
	if c.Target != "" {
		inverse := c.InverseColumn
		if inverse == "" {
			inverse = naming.Apply(c.Name) + "_id"
		}
		p.inverseCol = p.joinTable.Column(inverse)
	} else {
		element := c.ElementColumn
		if element == "" {
			element = naming.Apply(c.Name)
		}
		p.elementCol = p.joinTable.Column(element)
	}
	if c.OrderColumn != "" {
		p.orderCol = p.joinTable.Column(c.OrderColumn)
	}
	return p
}

// buildMap builds a keyed plural association property.
func (t *EntityType) buildMap(m *schema.MapField) *MapProperty {
	naming := t.ctx.model.Naming
	p := &MapProperty{ctx: t.ctx, owner: t, decl: m}
	jtName := m.JoinTable
	if jtName == "" {
		jtName = t.Table.Name + "_" + naming.Apply(m.Name)
	}
	p.joinTable = t.ctx.ResolveTable(jtName)
	joinCol := m.JoinColumn
	if joinCol == "" {
		joinCol = naming.Apply(t.Name) + "_id"
	}
	p.joinCol = p.joinTable.Column(joinCol)
	keyCol := m.KeyColumn
	if keyCol == "" {
		keyCol = naming.Apply(m.Name) + "_key"
	}
	p.keyCol = p.joinTable.Column(keyCol)
	valueCol := m.ValueColumn
	if valueCol == "" {
		if m.Target != "" {
			valueCol = naming.Apply(m.Name) + "_id"
		} else {
			valueCol = naming.Apply(m.Name)
		}
	}
	p.valueCol = p.joinTable.Column(valueCol)
	return p
}

// considerUnique records a singular property declared unique as a unique
// key alternate candidate.
func (t *EntityType) considerUnique(p SingularProperty, unique bool) {
	if !unique || t.ctx.config.MaxUniqueProperties <= 0 {
		return
	}
	quality, ok := matchingQuality(p)
	if ok && t.betterQuality(quality) {
		t.UniqueProperties = []SingularProperty{p}
		t.UniqueQuality = quality
		t.uniqueSet = true
	}
}

// buildUniqueConstraints inspects the declared unique constraints whose
// column count does not exceed the configured maximum.
func (t *EntityType) buildUniqueConstraints() error {
	for _, columns := range t.decl.UniqueConstraints {
		if len(columns) == 0 || len(columns) > t.ctx.config.MaxUniqueProperties {
			continue
		}
		quality := QualityOnlyRequiredPrimitives
		var uniques []SingularProperty
		for _, columnName := range columns {
			folded := t.ctx.dialect.Fold(columnName)
			for _, name := range t.propNames {
				sp, ok := t.props[name].(SingularProperty)
				if !ok || sp.Column() == nil {
					continue
				}
				if t.ctx.dialect.Fold(sp.Column().Name) != folded {
					continue
				}
				q, ok := matchingQuality(sp)
				if !ok {
					continue
				}
				if q > quality {
					quality = q
				}
				uniques = append(uniques, sp)
				break
			}
		}
		if len(uniques) == len(columns) && t.betterQuality(quality) {
			t.UniqueProperties = uniques
			t.UniqueQuality = quality
			t.uniqueSet = true
		}
	}
	return nil
}

// betterQuality reports whether the found quality improves on the current
// alternate and satisfies the configured threshold.
func (t *EntityType) betterQuality(found UniquePropertyQuality) bool {
	return (!t.uniqueSet || t.UniqueQuality > found) && found <= t.ctx.config.UniquePropertyQuality
}

// generatedID returns the generated id property of the hierarchy, nil for
// plain and composite ids.
func (t *EntityType) generatedID() *GeneratedIDProperty {
	p, _ := t.IDProperty.(*GeneratedIDProperty)
	return p
}

// stateKey returns the key of the record in the state map. Records of
// entities with generated identifiers are keyed by referential identity,
// because their value based identity changes once the id is assigned.
func (t *EntityType) stateKey(rec *schema.Record) (any, error) {
	if gp := t.generatedID(); gp != nil {
		return rec, nil
	}
	switch p := t.IDProperty.(type) {
	case *EmbeddedProperty:
		v := p.value(rec)
		if v == nil {
			return nil, NewModelError(t.Name, p.Name(), "missing composite id", nil)
		}
		return v, nil
	case *PrimitiveProperty:
		v := p.value(rec)
		if v == nil {
			return nil, NewModelError(t.Name, p.Name(), "missing id", nil)
		}
		return v, nil
	}
	return nil, NewModelError(t.Name, "", "unsupported id property for state tracking", nil)
}

// IsNew reports whether the record still needs to be written. For records
// with generated identifiers the id value alone is not authoritative: the
// first generated id may be 0, so the state map is consulted.
func (t *EntityType) IsNew(rec *schema.Record) bool {
	if gp := t.generatedID(); gp != nil && !gp.assigned {
		if gp.IsReference(rec) {
			return false
		}
		if id, ok := gp.value(rec); ok && id != 0 {
			return false
		}
	}
	key, err := t.stateKey(rec)
	if err != nil {
		return true
	}
	st := t.states[key]
	return st == nil || st.state != statePersisted
}

// MarkExisting marks a record as already present in the database. For
// generated identifiers the id, if any, is recorded as a reference value,
// not a slot to be assigned.
func (t *EntityType) MarkExisting(rec *schema.Record) error {
	if gp := t.generatedID(); gp != nil && !gp.assigned {
		gp.MarkReference(rec)
		delete(t.states, any(rec))
		return nil
	}
	key, err := t.stateKey(rec)
	if err != nil {
		return err
	}
	if st := t.states[key]; st != nil {
		st.state = statePersisted
	} else {
		t.states[key] = &entityState{state: statePersisted}
	}
	return nil
}

// MarkPendingUpdates queues a deferred action on the record, to run once
// the record is written. The record's state becomes Pending if it was
// unknown; a persisted record cannot turn pending again.
func (t *EntityType) MarkPendingUpdates(pendingRec, toUpdate *schema.Record, property PendingProperty, args []any) error {
	key, err := t.stateKey(pendingRec)
	if err != nil {
		return err
	}
	st := t.states[key]
	if st == nil {
		st = &entityState{state: statePending}
		t.states[key] = st
	} else if st.state == statePersisted {
		return NewModelError(t.Name, property.Name(), "deferred action on an already persisted entity", nil)
	}
	st.pending = append(st.pending, pendingAction{record: toUpdate, property: property, args: args})
	return nil
}

// CreatePostInsertStatements transitions the record to Persisted and
// flushes its queued deferred actions in FIFO order. A generated id of 0 is
// kept in the state map, as it cannot be told apart from an unassigned id.
func (t *EntityType) CreatePostInsertStatements(rec *schema.Record, w statements.Writer) error {
	key, err := t.stateKey(rec)
	if err != nil {
		return err
	}
	old := t.states[key]
	wasPending := old != nil && old.state == statePending
	if gp := t.generatedID(); gp != nil && !gp.assigned {
		if id, ok := gp.value(rec); ok && id == 0 {
			t.states[key] = &entityState{state: statePersisted}
		} else {
			delete(t.states, key)
		}
	} else if old != nil {
		old.state = statePersisted
	} else {
		t.states[key] = &entityState{state: statePersisted}
	}
	if wasPending {
		return old.flush(w, rec)
	}
	return nil
}

// pendingCount returns the number of records still in Pending state.
func (t *EntityType) pendingCount() int {
	n := 0
	for _, st := range t.states {
		if st.state == statePending && len(st.pending) > 0 {
			n++
		}
	}
	return n
}

// EntityReference creates the expression referencing the id of the record.
// idField selects the component of a composite id. The expression is, in
// priority order: the parent's reference for Joined children, the
// sequence's current value, a sub-select over the unique key alternate, or
// the literal id.
func (t *EntityType) EntityReference(rec *schema.Record, idField string, forWhere bool) (statements.ColumnExpression, error) {
	if t.JoinedParent != nil {
		return t.JoinedParent.EntityReference(rec, idField, forWhere)
	}
	if gp := t.generatedID(); gp != nil && !gp.assigned {
		return t.generatedIDReference(rec, gp, forWhere)
	}
	p := t.IDProperty
	if ep, ok := p.(*EmbeddedProperty); ok {
		if idField == "" {
			subs := ep.SubProperties()
			if len(subs) != 1 {
				return nil, NewModelError(t.Name, ep.Name(), "composite id needs an id field selector", nil)
			}
			p, _ = ep.SubProperty(subs[0])
		} else {
			sub, ok := ep.SubProperty(idField)
			if !ok {
				return nil, NewModelError(t.Name, ep.Name(), "id field "+strconv.Quote(idField)+" not found", nil)
			}
			p = sub
		}
	}
	expr, err := p.Expression(rec, forWhere)
	if err != nil {
		return nil, err
	}
	return expr, nil
}

// generatedIDReference resolves a reference to a generated id record.
func (t *EntityType) generatedIDReference(rec *schema.Record, gp *GeneratedIDProperty, forWhere bool) (statements.ColumnExpression, error) {
	id, idKnown := gp.value(rec)
	if gp.IsReference(rec) {
		if idKnown {
			return gp.gen.Expression(id, forWhere), nil
		}
		if expr, ok := t.uniqueSubselect(rec, gp); ok {
			return expr, nil
		}
		return nil, NewModelError(t.Name, gp.Name(),
			"existing entity has neither an id nor a usable unique key", nil)
	}
	if t.ctx.config.WriteRelativeIDs {
		if t.ctx.config.PreferSequenceCurrentValue && idKnown {
			if sg, ok := gp.gen.(*SequenceGenerator); ok && sg.CurrentValue() == id {
				return sg.CurrentValueExpression(), nil
			}
		}
		if expr, ok := t.uniqueSubselect(rec, gp); ok {
			return expr, nil
		}
	}
	if idKnown {
		return gp.gen.Expression(id, forWhere), nil
	}
	return nil, NewModelError(t.Name, gp.Name(), "no id for reference", nil)
}

// uniqueSubselect builds a sub-select resolving the record's id through the
// unique key alternate. It succeeds only when every component has a
// non-null predicate.
func (t *EntityType) uniqueSubselect(rec *schema.Record, gp *GeneratedIDProperty) (statements.ColumnExpression, bool) {
	if len(t.UniqueProperties) == 0 {
		return nil, false
	}
	var cond strings.Builder
	for _, p := range t.UniqueProperties {
		pred, ok := p.Predicate(rec)
		if !ok {
			return nil, false
		}
		if cond.Len() > 0 {
			cond.WriteString(" AND ")
		}
		cond.WriteString(pred)
	}
	d := t.ctx.dialect
	if t.Discriminator != nil {
		cond.WriteString(" AND ")
		cond.WriteString(t.DiscriminatorColumn.Quoted(d))
		cond.WriteString(" = ")
		cond.WriteString(t.Discriminator.SQL())
	}
	return statements.Plain("(SELECT " + gp.Column().Quoted(d) + " FROM " + t.Table.Quoted(d) +
		" WHERE " + cond.String() + ")"), true
}

// String returns the entity name.
func (t *EntityType) String() string { return t.Name }
