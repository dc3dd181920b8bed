package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/seedql/dialect"
	"github.com/syssam/seedql/schema"
)

func newTestContext(t *testing.T, cfg Config, entities ...*schema.Entity) *Context {
	t.Helper()
	m := schema.NewModel()
	require.NoError(t, m.Register(entities...))
	return NewContext(m, dialect.PostgresDialect{}, cfg)
}

func TestDescribeMemoized(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(),
		&schema.Entity{Name: "Person", ID: &schema.Field{Name: "id", Generated: schema.GenerateSequence}},
	)
	p1, err := ctx.Describe("Person")
	require.NoError(err)
	p2, err := ctx.Describe("Person")
	require.NoError(err)
	require.Same(p1, p2)

	_, err = ctx.Describe("Unknown")
	require.ErrorIs(err, ErrModel)
	require.True(IsModelError(err))
}

func TestDescribeMissingID(t *testing.T) {
	ctx := newTestContext(t, DefaultConfig(), &schema.Entity{Name: "Broken"})
	_, err := ctx.Describe("Broken")
	require.ErrorIs(t, err, ErrModel)
}

func TestTableResolution(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(),
		&schema.Entity{Name: "Person", Table: "people", ID: &schema.Field{Name: "id"}},
		&schema.Entity{Name: "Country", ID: &schema.Field{Name: "id"}},
	)
	person, err := ctx.Describe("Person")
	require.NoError(err)
	require.Equal("people", person.Table.Name)

	country, err := ctx.Describe("Country")
	require.NoError(err)
	require.Equal("Country", country.Table.Name)
	require.Same(ctx.ResolveTable("Country"), country.Table)
}

func TestSingleTableInheritance(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(),
		&schema.Entity{
			Name:   "Animal",
			ID:     &schema.Field{Name: "id", Generated: schema.GenerateSequence},
			Fields: []*schema.Field{{Name: "name", Type: schema.TypeString}},
		},
		&schema.Entity{
			Name:   "Cat",
			Parent: "Animal",
			Fields: []*schema.Field{{Name: "lives", Type: schema.TypeInt}},
		},
	)
	cat, err := ctx.Describe("Cat")
	require.NoError(err)
	animal, err := ctx.Describe("Animal")
	require.NoError(err)

	// Registering a subclass promotes the parent to a single table root.
	require.Equal(schema.SingleTable, animal.Inheritance)
	require.Equal(schema.SingleTable, cat.Inheritance)
	require.Same(animal, cat.HierarchyRoot)
	require.Same(animal.Table, cat.Table)
	require.Nil(cat.JoinedParent)

	// Default discriminator: DTYPE, entity name as string.
	require.NotNil(animal.DiscriminatorColumn)
	require.Equal("DTYPE", animal.DiscriminatorColumn.Name)
	require.Equal("'Animal'", animal.Discriminator.SQL())
	require.Equal("'Cat'", cat.Discriminator.SQL())

	// The child inherits the id and sees the parent's fields.
	require.Same(animal.IDProperty, cat.IDProperty)
	_, ok := cat.Property("name")
	require.True(ok)
	_, ok = cat.Property("lives")
	require.True(ok)
}

func TestJoinedInheritance(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(),
		&schema.Entity{
			Name:                "Animal",
			Inheritance:         schema.Joined,
			DiscriminatorColumn: "type",
			ID:                  &schema.Field{Name: "id", Generated: schema.GenerateSequence},
			Fields:              []*schema.Field{{Name: "name", Type: schema.TypeString}},
		},
		&schema.Entity{
			Name:   "Dog",
			Parent: "Animal",
			Fields: []*schema.Field{{Name: "bark_volume", Type: schema.TypeInt}},
		},
	)
	dog, err := ctx.Describe("Dog")
	require.NoError(err)
	animal, err := ctx.Describe("Animal")
	require.NoError(err)

	require.Same(animal, dog.JoinedParent)
	require.Same(animal, dog.HierarchyRoot)
	require.NotEqual(animal.Table, dog.Table)
	require.Equal("Dog", dog.Table.Name)
	require.NotNil(dog.PrimaryKeyJoinColumn)
	require.Equal("id", dog.PrimaryKeyJoinColumn.Name)
	require.Same(dog.PrimaryKeyJoinColumn.Table, dog.Table)
	require.Same(animal.IDProperty, dog.IDProperty)
	require.Equal("'Dog'", dog.Discriminator.SQL())
	require.Same(animal.Table, dog.DiscriminatorColumn.Table)

	// Own properties exclude the parent's; AllProperties include them.
	_, ok := dog.Property("name")
	require.False(ok)
	names := make([]string, 0)
	for _, p := range dog.AllProperties() {
		names = append(names, p.Name())
	}
	require.Equal([]string{"id", "name", "bark_volume"}, names)
}

func TestDiscriminatorTypes(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(),
		&schema.Entity{
			Name:                "Node",
			Inheritance:         schema.SingleTable,
			DiscriminatorColumn: "kind",
			DiscriminatorType:   schema.DiscriminatorInteger,
			ID:                  &schema.Field{Name: "id"},
		},
		&schema.Entity{Name: "Leaf", Parent: "Node", DiscriminatorValue: "7"},
		&schema.Entity{
			Name:                "Shape",
			Inheritance:         schema.SingleTable,
			DiscriminatorColumn: "c",
			DiscriminatorType:   schema.DiscriminatorChar,
			ID:                  &schema.Field{Name: "id"},
		},
		&schema.Entity{
			Name:                "VeryLongEntityNameThatExceedsTheDefaultMaximumLength",
			Inheritance:         schema.SingleTable,
			DiscriminatorColumn: "DTYPE",
			ID:                  &schema.Field{Name: "id"},
		},
	)

	node, err := ctx.Describe("Node")
	require.NoError(err)
	// Integer discriminator without a value is a stable hash of the name.
	require.Equal("2433570", node.Discriminator.SQL())
	require.Equal(int32(2433570), stableHash("Node"))

	leaf, err := ctx.Describe("Leaf")
	require.NoError(err)
	require.Equal("7", leaf.Discriminator.SQL())

	shape, err := ctx.Describe("Shape")
	require.NoError(err)
	require.Equal("'S'", shape.Discriminator.SQL())

	long, err := ctx.Describe("VeryLongEntityNameThatExceedsTheDefaultMaximumLength")
	require.NoError(err)
	require.Equal("'VeryLongEntityNameThatExceedsTh'", long.Discriminator.SQL())
	require.Len("VeryLongEntityNameThatExceedsTh", 31)
}

func TestStableHashDeterminism(t *testing.T) {
	assert.Equal(t, stableHash("Person"), stableHash("Person"))
	assert.NotEqual(t, stableHash("Person"), stableHash("Country"))
}

func TestUniquePropertyQuality(t *testing.T) {
	require := require.New(t)

	cfg := DefaultConfig()
	ctx := newTestContext(t, cfg,
		&schema.Entity{
			Name: "Country",
			ID:   &schema.Field{Name: "id", Generated: schema.GenerateSequence},
			Fields: []*schema.Field{
				{Name: "code", Type: schema.TypeString, Required: true, Unique: true},
				{Name: "iso3", Type: schema.TypeString, Unique: true},
			},
		},
	)
	country, err := ctx.Describe("Country")
	require.NoError(err)
	require.Len(country.UniqueProperties, 1)
	require.Equal("code", country.UniqueProperties[0].Name())
	require.Equal(QualityOnlyRequiredPrimitives, country.UniqueQuality)
}

func TestUniqueConstraints(t *testing.T) {
	require := require.New(t)
	cfg := DefaultConfig()
	cfg.MaxUniqueProperties = 2
	cfg.UniquePropertyQuality = QualityOnlyPrimitives
	ctx := newTestContext(t, cfg,
		&schema.Entity{
			Name: "City",
			ID:   &schema.Field{Name: "id", Generated: schema.GenerateSequence},
			Fields: []*schema.Field{
				{Name: "name", Type: schema.TypeString, Required: true},
				{Name: "zip", Type: schema.TypeString},
			},
			UniqueConstraints: [][]string{{"name", "zip"}},
		},
	)
	city, err := ctx.Describe("City")
	require.NoError(err)
	require.Len(city.UniqueProperties, 2)
	// The optional component degrades the constraint's quality.
	require.Equal(QualityOnlyPrimitives, city.UniqueQuality)
}

func TestUniqueDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUniqueProperties = 0
	ctx := newTestContext(t, cfg,
		&schema.Entity{
			Name:   "Country",
			ID:     &schema.Field{Name: "id", Generated: schema.GenerateSequence},
			Fields: []*schema.Field{{Name: "code", Type: schema.TypeString, Required: true, Unique: true}},
		},
	)
	country, err := ctx.Describe("Country")
	require.NoError(t, err)
	require.Empty(t, country.UniqueProperties)
}

func TestAttributeOverrides(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(),
		&schema.Entity{
			Name:               "Base",
			ID:                 &schema.Field{Name: "id"},
			Fields:             []*schema.Field{{Name: "label", Type: schema.TypeString}},
			AttributeOverrides: map[string]string{"label": "base_label"},
		},
		&schema.Entity{
			Name:               "Derived",
			Parent:             "Base",
			AttributeOverrides: map[string]string{"label": "derived_label"},
		},
	)
	derived, err := ctx.Describe("Derived")
	require.NoError(err)
	p, ok := derived.Property("label")
	require.True(ok)
	require.Equal("derived_label", p.(SingularProperty).Column().Name)
}

func TestStateMachine(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(),
		&schema.Entity{
			Name:   "Person",
			ID:     &schema.Field{Name: "id", Generated: schema.GenerateSequence},
			Fields: []*schema.Field{{Name: "name", Type: schema.TypeString}},
		},
	)
	person, err := ctx.Describe("Person")
	require.NoError(err)

	alice := schema.New("Person").Set("name", "alice")
	require.True(person.IsNew(alice))

	// Two records with equal values stay distinct: identity keying.
	clone := schema.New("Person").Set("name", "alice")
	require.NoError(person.MarkExisting(clone))
	require.True(person.IsNew(alice))
	require.False(person.IsNew(clone))

	// A record with a nonzero id counts as written.
	withID := schema.New("Person").Set("id", int64(9))
	require.False(person.IsNew(withID))
}

func TestPersistedIsMonotone(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(),
		&schema.Entity{
			Name:   "Tag",
			ID:     &schema.Field{Name: "id", Type: schema.TypeString},
			Fields: []*schema.Field{{Name: "label", Type: schema.TypeString}},
		},
	)
	tag, err := ctx.Describe("Tag")
	require.NoError(err)

	rec := schema.New("Tag").Set("id", "t1")
	require.NoError(tag.MarkExisting(rec))
	require.False(tag.IsNew(rec))

	other := schema.New("Tag").Set("id", "t2")
	var prop PendingProperty = &EntityProperty{ctx: ctx, owner: tag, ref: &schema.Reference{Name: "x"}}
	err = tag.MarkPendingUpdates(rec, other, prop, nil)
	require.ErrorIs(err, ErrModel)
}
