package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/seedql/dialect"
	"github.com/syssam/seedql/schema"
	"github.com/syssam/seedql/statements"
)

func TestSequenceGeneratorAbsolute(t *testing.T) {
	require := require.New(t)
	d := dialect.PostgresDialect{}
	g, err := NewSequenceGenerator(d, "person_seq", 1, false)
	require.NoError(err)

	require.Equal(int64(1), g.NextValue())
	require.Equal(int64(2), g.NextValue())
	require.Equal(int64(2), g.CurrentValue())
	require.Equal("2", g.InsertExpression(2).SQL())
	require.Equal("1", g.Expression(1, true).SQL())

	var out strings.Builder
	w := statements.NewFileWriter(&out, d)
	require.NoError(g.WriteAlignment(w))
	require.NoError(w.Flush())
	require.Equal("SELECT setval('person_seq', 2);\n", out.String())
}

func TestSequenceGeneratorRelative(t *testing.T) {
	require := require.New(t)
	d := dialect.PostgresDialect{}
	g, err := NewSequenceGenerator(d, "person_seq", 1, true)
	require.NoError(err)

	id := g.NextValue()
	require.Equal("nextval('person_seq')", g.InsertExpression(id).SQL())
	require.Equal("currval('person_seq')", g.CurrentValueExpression().SQL())

	// The sequence advanced during generation, nothing to realign.
	var out strings.Builder
	w := statements.NewFileWriter(&out, d)
	require.NoError(g.WriteAlignment(w))
	require.NoError(w.Flush())
	require.Empty(out.String())
}

func TestSequenceGeneratorUnsupportedDialect(t *testing.T) {
	_, err := NewSequenceGenerator(dialect.MySQLDialect{}, "s", 1, false)
	require.ErrorIs(t, err, ErrDialect)
	require.True(t, IsDialectError(err))
}

func TestIdentityGenerator(t *testing.T) {
	require := require.New(t)
	d := dialect.MySQLDialect{}
	r := statements.NewRegistry(d)
	table := r.Table("Person")
	g, err := NewIdentityGenerator(d, table, table.Column("id"))
	require.NoError(err)

	require.Equal(int64(1), g.NextValue())
	// No explicit value: the column is omitted from the INSERT.
	require.Nil(g.InsertExpression(1))
	require.Equal("1", g.Expression(1, false).SQL())

	var out strings.Builder
	w := statements.NewFileWriter(&out, d)
	require.NoError(g.WriteAlignment(w))
	require.NoError(w.Flush())
	require.Empty(out.String())
}

func TestTableGeneratorRelative(t *testing.T) {
	require := require.New(t)
	d := dialect.PostgresDialect{}
	r := statements.NewRegistry(d)
	genTable := r.Table("id_generators")
	g := NewTableGenerator(d, genTable, genTable.Column("sequence_name"), genTable.Column("next_val"), "Person", true)

	g.NextValue()
	var out strings.Builder
	w := statements.NewFileWriter(&out, d)
	require.NoError(g.CreatePreInsertStatements(w))
	require.NoError(w.Flush())
	require.Equal(
		`UPDATE "id_generators" SET "next_val" = "next_val" + 1 WHERE "sequence_name" = 'Person';`+"\n",
		out.String())
	require.Equal(
		`(SELECT "next_val" FROM "id_generators" WHERE "sequence_name" = 'Person')`,
		g.InsertExpression(1).SQL())
}

func TestTableGeneratorAbsolute(t *testing.T) {
	require := require.New(t)
	d := dialect.PostgresDialect{}
	r := statements.NewRegistry(d)
	genTable := r.Table("id_generators")
	g := NewTableGenerator(d, genTable, genTable.Column("sequence_name"), genTable.Column("next_val"), "Person", false)

	require.Equal(int64(1), g.NextValue())
	require.Equal("1", g.InsertExpression(1).SQL())

	var out strings.Builder
	w := statements.NewFileWriter(&out, d)
	require.NoError(g.CreatePreInsertStatements(w))
	require.NoError(g.WriteAlignment(w))
	require.NoError(w.Flush())
	require.Equal(
		`UPDATE "id_generators" SET "next_val" = 1 WHERE "sequence_name" = 'Person';`+"\n",
		out.String())
}

func TestAssignedGenerator(t *testing.T) {
	require := require.New(t)
	g := NewAssignedGenerator("Person.id")

	g.Track(7)
	g.Track(3)
	require.Equal(int64(7), g.CurrentValue())
	require.Equal("7", g.InsertExpression(7).SQL())

	var out strings.Builder
	w := statements.NewFileWriter(&out, dialect.PostgresDialect{})
	require.NoError(g.WriteAlignment(w))
	require.NoError(w.Flush())
	require.Empty(out.String())
}

func TestAssignedIDProperty(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t, DefaultConfig(), &schema.Entity{
		Name:   "Account",
		ID:     &schema.Field{Name: "id", Type: schema.TypeInt64, Generated: schema.GenerateAssigned},
		Fields: []*schema.Field{{Name: "name", Type: schema.TypeString}},
	})
	account, err := ctx.Describe("Account")
	require.NoError(err)

	rec := schema.New("Account").Set("id", int64(5)).Set("name", "main")
	// Assigned ids carry a value before the write: the state decides.
	require.True(account.IsNew(rec))

	var out strings.Builder
	w := statements.NewFileWriter(&out, dialect.PostgresDialect{})
	g := NewGenerator(ctx, w)
	require.NoError(g.Write(rec))
	require.NoError(w.Flush())
	require.Equal(`INSERT INTO "Account" ("id", "name") VALUES (5, 'main');`+"\n", out.String())
	require.False(account.IsNew(rec))

	// The missing id of a second record is a model error.
	err = g.Write(schema.New("Account").Set("name", "other"))
	require.ErrorIs(err, ErrModel)
}
