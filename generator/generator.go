package generator

import (
	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

// Generator emits the SQL for entity records: required references first,
// then pre-insert statements, the main row (the whole table chain for
// Joined hierarchies), post-insert statements and finally the deferred
// actions waiting on the record. From the caller's perspective this
// sequence is atomic - no other record's statements interleave.
type Generator struct {
	ctx     *Context
	writer  statements.Writer
	writing map[*schema.Record]struct{}
}

// NewGenerator creates a generator appending to the given writer.
func NewGenerator(ctx *Context, w statements.Writer) *Generator {
	return &Generator{
		ctx:     ctx,
		writer:  w,
		writing: make(map[*schema.Record]struct{}),
	}
}

// Context returns the generator context.
func (g *Generator) Context() *Context { return g.ctx }

// Writer returns the statement writer.
func (g *Generator) Writer() statements.Writer { return g.writer }

// WriteComment appends a comment to the output.
func (g *Generator) WriteComment(text string) error { return g.writer.WriteComment(text) }

// WriteSectionSeparator appends a section separator to the output.
func (g *Generator) WriteSectionSeparator() error { return g.writer.WriteSectionSeparator() }

// MarkExisting marks a record as already present in the database, so that
// references to it resolve instead of inserting it.
func (g *Generator) MarkExisting(rec *schema.Record) error {
	t, err := g.ctx.Describe(rec.Type())
	if err != nil {
		return err
	}
	return t.MarkExisting(rec)
}

// WriteAll writes the given records in order.
func (g *Generator) WriteAll(recs ...*schema.Record) error {
	for _, rec := range recs {
		if err := g.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Write emits the statements for one record, unless it was written or
// marked existing before. Entities referenced through required singular
// associations are written first; optional references to unwritten
// entities are emitted as NULL plus a deferred UPDATE, and resolved as
// soon as the referenced record is written.
func (g *Generator) Write(rec *schema.Record) error {
	if rec == nil {
		return nil
	}
	t, err := g.ctx.Describe(rec.Type())
	if err != nil {
		return err
	}
	if !t.IsNew(rec) {
		return nil
	}
	if _, busy := g.writing[rec]; busy {
		return nil
	}
	g.writing[rec] = struct{}{}

	all := t.AllProperties()
	if err := g.writeRequiredReferences(t, rec, all); err != nil {
		delete(g.writing, rec)
		return err
	}
	if err := g.writeRecord(t, rec, all); err != nil {
		delete(g.writing, rec)
		return err
	}
	delete(g.writing, rec)

	// Entities that are referenced but still unwritten (optional
	// references, collection elements) follow, resolving the deferred
	// actions queued above.
	for _, p := range all {
		for _, ref := range p.FindReferencedEntities(rec) {
			rt, err := g.ctx.Describe(ref.Type())
			if err != nil {
				return err
			}
			if rt.IsNew(ref) {
				if err := g.Write(ref); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// writeRequiredReferences writes the targets of required singular
// associations, which must exist before the record's row.
func (g *Generator) writeRequiredReferences(t *EntityType, rec *schema.Record, all []Property) error {
	for _, p := range all {
		switch p := p.(type) {
		case *EntityProperty:
			if !p.IsRequired() {
				continue
			}
		case *EmbeddedProperty:
			// References inside embedded values cannot be deferred,
			// their targets are written up front.
		default:
			continue
		}
		for _, ref := range p.FindReferencedEntities(rec) {
			rt, err := g.ctx.Describe(ref.Type())
			if err != nil {
				return err
			}
			if !rt.IsNew(ref) {
				continue
			}
			if _, busy := g.writing[ref]; busy {
				return NewModelError(t.Name, p.Name(),
					"cycle of required references involving "+rt.Name, nil)
			}
			if err := g.Write(ref); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeRecord emits pre-inserts, the table chain rows, post-inserts and
// the state transition of one record.
func (g *Generator) writeRecord(t *EntityType, rec *schema.Record, all []Property) error {
	for _, p := range all {
		if err := p.CreatePreInsertStatements(g.writer, rec); err != nil {
			return err
		}
	}

	chain := t.tableChain()
	for i, level := range chain {
		stmt := statements.NewInsert(level.Table)
		if i == 0 {
			if err := t.IDProperty.AddInsertExpression(stmt, rec); err != nil {
				return err
			}
			if t.DiscriminatorColumn != nil {
				stmt.Set(t.DiscriminatorColumn, t.Discriminator)
			}
		} else {
			idExpr, err := t.EntityReference(rec, "", false)
			if err != nil {
				return err
			}
			stmt.Set(level.PrimaryKeyJoinColumn, idExpr)
		}
		for _, p := range level.Properties() {
			if err := p.AddInsertExpression(stmt, rec); err != nil {
				return err
			}
		}
		if err := g.writer.WriteStatement(stmt); err != nil {
			return err
		}
	}

	for _, p := range all {
		if err := p.CreatePostInsertStatements(g.writer, rec); err != nil {
			return err
		}
	}
	return t.CreatePostInsertStatements(rec, g.writer)
}

// WriteAlignmentStatements writes the trailing statements advancing
// sequences and generator tables past the values used during generation.
func (g *Generator) WriteAlignmentStatements() error {
	return g.ctx.WriteAlignmentStatements(g.writer)
}

// CheckPending reports a ReferenceError if any record was referenced but
// never written.
func (g *Generator) CheckPending() error { return g.ctx.CheckPending() }
