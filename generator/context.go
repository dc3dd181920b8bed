package generator

import (
	"sort"

	"github.com/syssam/seedql/dialect"
	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// Default generator table layout, used by table based id generation.
const (
	defaultGeneratorTable  = "id_generators"
	generatorTablePKColumn = "sequence_name"
	generatorTableValueCol = "next_val"
)

// Config holds the generation settings consumed by the core.
type Config struct {
	// MaxUniqueProperties is the maximum column count of a unique
	// constraint considered as a unique key alternate. 0 disables
	// alternates.
	MaxUniqueProperties int
	// UniquePropertyQuality is the worst quality rank a unique key
	// alternate may have.
	UniquePropertyQuality UniquePropertyQuality
	// WriteRelativeIDs prefers currval and sub-select references over
	// literal ids.
	WriteRelativeIDs bool
	// PreferSequenceCurrentValue enables the currval shortcut for
	// references to the entity written last.
	PreferSequenceCurrentValue bool
}

// DefaultConfig returns the default generation settings.
func DefaultConfig() Config {
	return Config{
		MaxUniqueProperties:        1,
		UniquePropertyQuality:      QualityOnlyRequiredPrimitives,
		PreferSequenceCurrentValue: true,
	}
}

// Context is the process wide coordination of one generation pipeline: the
// descriptor cache, the table registry, the id generators and the settings.
// One context serves one pipeline at a time; it is not safe for concurrent
// use.
type Context struct {
	dialect dialect.Dialect
	config  Config
	model   *schema.Model

	registry       *statements.Registry
	types          map[string]*EntityType
	generators     map[string]IDGenerator
	generatorOrder []string
}

// NewContext creates a context for the given model, dialect and settings.
func NewContext(model *schema.Model, d dialect.Dialect, cfg Config) *Context {
	return &Context{
		dialect:    d,
		config:     cfg,
		model:      model,
		registry:   statements.NewRegistry(d),
		types:      make(map[string]*EntityType),
		generators: make(map[string]IDGenerator),
	}
}

// Dialect returns the dialect of the pipeline.
func (c *Context) Dialect() dialect.Dialect { return c.dialect }

// Config returns the generation settings.
func (c *Context) Config() Config { return c.config }

// Model returns the entity model.
func (c *Context) Model() *schema.Model { return c.model }

// ResolveTable canonicalizes the table with the given name.
func (c *Context) ResolveTable(name string) *statements.Table { return c.registry.Table(name) }

// Describe returns the descriptor of the named entity. Descriptors are
// built once and cached; on cyclic references the cached shell is returned
// while the descriptor is still being filled.
func (c *Context) Describe(name string) (*EntityType, error) {
	if t, ok := c.types[name]; ok {
		return t, nil
	}
	decl, ok := c.model.Entity(name)
	if !ok {
		return nil, NewModelError(name, "", "unknown entity", nil)
	}
	t := &EntityType{
		ctx:    c,
		decl:   decl,
		Name:   decl.Name,
		props:  make(map[string]Property),
		states: make(map[any]*entityState),
	}
	c.types[name] = t
	if err := t.build(); err != nil {
		return nil, err
	}
	return t, nil
}

// generatorFor returns the id generator of a generated id field, creating
// and registering it on first use. Generators are shared by name, so two
// entities naming the same sequence allocate from the same counter.
func (c *Context) generatorFor(f *schema.Field, table *statements.Table, column *statements.Column) (IDGenerator, error) {
	strategy := f.Generated
	if strategy == schema.GenerateAuto {
		if c.dialect.SupportsSequences() {
			strategy = schema.GenerateSequence
		} else {
			strategy = schema.GenerateIdentity
		}
	}
	var key string
	switch strategy {
	case schema.GenerateSequence:
		name := f.Generator
		if name == "" {
			name = table.Name + "_seq"
		}
		key = "sequence:" + name
		if g, ok := c.generators[key]; ok {
			return g, nil
		}
		g, err := NewSequenceGenerator(c.dialect, name, f.AllocationSize, c.config.WriteRelativeIDs)
		if err != nil {
			return nil, err
		}
		c.register(key, g)
		return g, nil
	case schema.GenerateIdentity:
		key = "identity:" + table.Name
		if g, ok := c.generators[key]; ok {
			return g, nil
		}
		g, err := NewIdentityGenerator(c.dialect, table, column)
		if err != nil {
			return nil, err
		}
		c.register(key, g)
		return g, nil
	case schema.GenerateTable:
		rowName := f.Generator
		if rowName == "" {
			rowName = table.Name
		}
		key = "table:" + rowName
		if g, ok := c.generators[key]; ok {
			return g, nil
		}
		genTable := c.ResolveTable(defaultGeneratorTable)
		g := NewTableGenerator(c.dialect, genTable,
			genTable.Column(generatorTablePKColumn), genTable.Column(generatorTableValueCol),
			rowName, c.config.WriteRelativeIDs)
		c.register(key, g)
		return g, nil
	case schema.GenerateAssigned:
		key = "assigned:" + table.Name + "." + column.Name
		if g, ok := c.generators[key]; ok {
			return g, nil
		}
		g := NewAssignedGenerator(table.Name + "." + column.Name)
		c.register(key, g)
		return g, nil
	}
	return nil, NewModelError("", f.Name, "no generation strategy", nil)
}

func (c *Context) register(key string, g IDGenerator) {
	c.generators[key] = g
	c.generatorOrder = append(c.generatorOrder, key)
}

// WriteAlignmentStatements writes the statements advancing sequences and
// generator tables past the highest values used during generation.
func (c *Context) WriteAlignmentStatements(w statements.Writer) error {
	for _, key := range c.generatorOrder {
		if err := c.generators[key].WriteAlignment(w); err != nil {
			return err
		}
	}
	return nil
}

// CheckPending scans for records that were referenced but never written.
// Any residual Pending state is a ReferenceError.
func (c *Context) CheckPending() error {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if n := c.types[name].pendingCount(); n > 0 {
			return NewReferenceError(name, n, "entities referenced but never written")
		}
	}
	return nil
}
