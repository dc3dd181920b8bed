// Package schema holds the declarative entity model consumed by the
// generator.
//
// The model is built through an explicit registration API: the application
// declares each persistent entity as an *Entity value and registers it with a
// Model at startup. The generator consumes these descriptors only - how they
// are produced (hand written, code generated) is not its concern.
package schema

import (
	"fmt"

	"github.com/go-openapi/inflect"
)

// InheritanceType is the table mapping strategy of an entity hierarchy.
type InheritanceType int

// Inheritance strategies.
const (
	// NoInheritance marks an entity without declared inheritance.
	NoInheritance InheritanceType = iota
	// SingleTable stores the whole hierarchy in the root table,
	// distinguished by a discriminator column.
	SingleTable
	// Joined gives every subclass its own table keyed by the parent id.
	Joined
	// TablePerClass gives every concrete class a full table of its own.
	TablePerClass
)

// DiscriminatorType is the column type of a discriminator.
type DiscriminatorType int

// Discriminator column types.
const (
	DiscriminatorString DiscriminatorType = iota
	DiscriminatorChar
	DiscriminatorInteger
)

// GenerationType selects how identifier values are produced.
type GenerationType int

// Identifier generation strategies.
const (
	// GenerateNone marks a plain, caller assigned identifier.
	GenerateNone GenerationType = iota
	// GenerateAuto picks sequence or identity generation, whatever the
	// dialect supports.
	GenerateAuto
	// GenerateSequence allocates values from a database sequence.
	GenerateSequence
	// GenerateIdentity lets the database assign values on insert.
	GenerateIdentity
	// GenerateTable allocates values from a generator table.
	GenerateTable
	// GenerateAssigned takes caller assigned numeric values and emits
	// them as literals, without allocating anything.
	GenerateAssigned
)

// Type is the value kind of a primitive field.
type Type int

// Field value kinds.
const (
	TypeInt Type = iota
	TypeInt64
	TypeFloat
	TypeBool
	TypeString
	TypeTime
	TypeBytes
	TypeUUID
)

// NamingStrategy derives default table and column names from declared
// attribute names.
type NamingStrategy int

// Naming strategies.
const (
	// NamingAsDeclared uses attribute and entity names unchanged.
	NamingAsDeclared NamingStrategy = iota
	// NamingUnderscore converts camel case names to snake case.
	NamingUnderscore
)

// Apply derives a database name from a declared name.
func (n NamingStrategy) Apply(name string) string {
	if n == NamingUnderscore {
		return inflect.Underscore(name)
	}
	return name
}

type (
	// Entity declares one persistent class of the model.
	Entity struct {
		// Name is the entity name, unique within the model.
		Name string
		// Table is the table name, defaulting to the naming strategy
		// applied to the entity name.
		Table string
		// Inheritance is the declared strategy, NoInheritance when the
		// entity is a hierarchy root without subclasses or inherits the
		// strategy of its parent.
		Inheritance InheritanceType
		// Parent names the parent entity, "" for roots.
		Parent string
		// DiscriminatorColumn defaults to DTYPE when a discriminator
		// applies.
		DiscriminatorColumn string
		// DiscriminatorType defaults to DiscriminatorString.
		DiscriminatorType DiscriminatorType
		// DiscriminatorLength is the maximum string discriminator
		// length, defaulting to 31.
		DiscriminatorLength int
		// DiscriminatorValue overrides the discriminator literal,
		// defaulting to the entity name.
		DiscriminatorValue string
		// PrimaryKeyJoinColumn names the id column of a Joined child,
		// defaulting to the parent id column.
		PrimaryKeyJoinColumn string
		// ID declares the identifier field. nil when the id is
		// inherited from a Joined parent or declared as EmbeddedID.
		ID *Field
		// EmbeddedID declares a composite identifier.
		EmbeddedID *Embedded
		// Fields are the primitive and version attributes.
		Fields []*Field
		// Embedded are the embedded value attributes.
		Embedded []*Embedded
		// References are the singular entity associations.
		References []*Reference
		// Collections are the plural associations and element
		// collections.
		Collections []*Collection
		// Maps are the keyed plural associations.
		Maps []*MapField
		// UniqueConstraints lists column name sets that uniquely
		// identify a row.
		UniqueConstraints [][]string
		// AttributeOverrides maps attribute names to replacement
		// column names, merged over the overrides of all ancestors.
		AttributeOverrides map[string]string
		// AssociationOverrides maps association names to replacement
		// join column names, merged like AttributeOverrides.
		AssociationOverrides map[string]string
	}

	// Field declares a primitive or version attribute.
	Field struct {
		// Name is the attribute name.
		Name string
		// Column is the column name, defaulting to the naming strategy
		// applied to Name.
		Column string
		// Type is the value kind.
		Type Type
		// Required marks the column NOT NULL.
		Required bool
		// Unique marks the column as a unique key candidate.
		Unique bool
		// Version marks the optimistic lock column.
		Version bool
		// Size is the maximum string length, 0 for unlimited.
		Size int
		// Generated selects the identifier generation strategy; only
		// meaningful on an id field.
		Generated GenerationType
		// Generator names the sequence or generator table row,
		// defaulting to "<table>_seq" for a sequence and to the table
		// name for a generator table row.
		Generator string
		// AllocationSize is the sequence allocation size, default 1.
		AllocationSize int64
		// Getter optionally reads the attribute from a record instead
		// of the record value map (method access).
		Getter func(*Record) any
	}

	// Reference declares a singular association to another entity.
	Reference struct {
		// Name is the attribute name.
		Name string
		// Column is the foreign key column, defaulting to the naming
		// strategy applied to Name + "_id".
		Column string
		// Target is the referenced entity name.
		Target string
		// Required marks the column NOT NULL.
		Required bool
		// Unique marks an owning side one-to-one.
		Unique bool
		// MappedBy marks the inverse side of a one-to-one; no column
		// is written.
		MappedBy string
		// IDField selects the component of a composite target id that
		// this reference stores.
		IDField string
		// Getter optionally reads the attribute from a record.
		Getter func(*Record) any
	}

	// Embedded declares an embedded value attribute.
	Embedded struct {
		// Name is the attribute name.
		Name string
		// Fields are the attributes of the embeddable.
		Fields []*Field
		// References are the associations of the embeddable.
		References []*Reference
		// ColumnOverrides maps embeddable attribute names to column
		// names on the embedding site.
		ColumnOverrides map[string]string
		// Getter optionally reads the attribute from a record.
		Getter func(*Record) any
	}

	// Collection declares a plural association or element collection.
	Collection struct {
		// Name is the attribute name.
		Name string
		// Target is the referenced entity name, "" for an element
		// collection.
		Target string
		// ElementType is the element kind of an element collection.
		ElementType Type
		// MappedBy marks the inverse side; the foreign key lives on
		// the target entity and is updated instead of a join table
		// row being inserted.
		MappedBy string
		// JoinTable is the join table name, defaulting to
		// "<table>_<name>" with the owning entity's table.
		JoinTable string
		// JoinColumn is the owner foreign key column in the join
		// table, defaulting to "<entity>_id".
		JoinColumn string
		// InverseColumn is the target foreign key column, defaulting
		// to "<name>_id".
		InverseColumn string
		// ElementColumn is the value column of an element collection.
		ElementColumn string
		// OrderColumn stores the position of each element, "" for
		// unordered collections.
		OrderColumn string
		// Getter optionally reads the attribute from a record.
		Getter func(*Record) any
	}

	// MapField declares a keyed plural association.
	MapField struct {
		// Name is the attribute name.
		Name string
		// Target is the referenced entity name, "" for an element
		// map.
		Target string
		// ElementType is the value kind of an element map.
		ElementType Type
		// KeyType is the kind of the map key.
		KeyType Type
		// JoinTable, JoinColumn default like Collection.
		JoinTable  string
		JoinColumn string
		// KeyColumn stores the map key.
		KeyColumn string
		// ValueColumn stores the value of an element map, or the
		// target foreign key.
		ValueColumn string
		// Getter optionally reads the attribute from a record.
		Getter func(*Record) any
	}
)

// Model is the registry of entity declarations.
type Model struct {
	// Naming derives default table and column names.
	Naming NamingStrategy

	entities map[string]*Entity
	names    []string
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{entities: make(map[string]*Entity)}
}

// Register adds entity declarations to the model. Registering two entities
// with the same name is an error.
func (m *Model) Register(entities ...*Entity) error {
	for _, e := range entities {
		if e.Name == "" {
			return fmt.Errorf("schema: entity without a name")
		}
		if _, ok := m.entities[e.Name]; ok {
			return fmt.Errorf("schema: entity %q registered twice", e.Name)
		}
		m.entities[e.Name] = e
		m.names = append(m.names, e.Name)
	}
	return nil
}

// MustRegister is like Register but panics on error, for use in package
// initialization.
func (m *Model) MustRegister(entities ...*Entity) {
	if err := m.Register(entities...); err != nil {
		panic(err)
	}
}

// Entity returns the declaration registered under the given name.
func (m *Model) Entity(name string) (*Entity, bool) {
	e, ok := m.entities[name]
	return e, ok
}

// Names returns all registered entity names in registration order.
func (m *Model) Names() []string { return m.names }

// DefaultModel is the model used by the seedql command. Applications
// register their entities here from init functions.
var DefaultModel = NewModel()

// Register adds entity declarations to the default model.
func Register(entities ...*Entity) error { return DefaultModel.Register(entities...) }

// MustRegister adds entity declarations to the default model and panics on
// error.
func MustRegister(entities ...*Entity) { DefaultModel.MustRegister(entities...) }
