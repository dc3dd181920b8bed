package statements

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/seedql/dialect"
)

func TestRegistry(t *testing.T) {
	require := require.New(t)
	r := NewRegistry(dialect.PostgresDialect{})

	person := r.Table("Person")
	require.Same(person, r.Table("Person"))
	// Postgres folds identifiers to lower case.
	require.Same(person, r.Table("PERSON"))
	require.Equal("Person", person.Name)

	id := person.Column("id")
	require.Same(id, person.Column("ID"))
	require.Same(person, id.Table)

	other := r.Table("Address")
	require.NotSame(person, other)
	require.Equal([]*Table{person, other}, r.Tables())

	// MySQL keeps identifiers as declared.
	m := NewRegistry(dialect.MySQLDialect{})
	require.NotSame(m.Table("Person"), m.Table("PERSON"))
}

func TestInsertSQL(t *testing.T) {
	d := dialect.PostgresDialect{}
	r := NewRegistry(d)
	person := r.Table("Person")

	stmt := NewInsert(person)
	stmt.Set(person.Column("name"), Plain("'alice'"))
	stmt.Set(person.Column("age"), Plain("30"))
	assert.Equal(t, `INSERT INTO "Person" ("name", "age") VALUES ('alice', 30)`, stmt.SQL(d))

	// Replacing a value keeps the column position.
	stmt.Set(person.Column("name"), Plain("'bob'"))
	assert.Equal(t, `INSERT INTO "Person" ("name", "age") VALUES ('bob', 30)`, stmt.SQL(d))
}

func TestUpdateSQL(t *testing.T) {
	d := dialect.MySQLDialect{}
	r := NewRegistry(d)
	person := r.Table("Person")

	stmt := NewUpdate(person)
	stmt.Set(person.Column("country_id"), Plain("5"))
	stmt.Where(person.Column("id"), Plain("1"))
	assert.Equal(t, "UPDATE `Person` SET `country_id` = 5 WHERE `id` = 1", stmt.SQL(d))

	stmt.Where(person.Column("version"), Plain("0"))
	assert.Equal(t, "UPDATE `Person` SET `country_id` = 5 WHERE `id` = 1 AND `version` = 0", stmt.SQL(d))
}

func TestFileWriter(t *testing.T) {
	require := require.New(t)
	d := dialect.PostgresDialect{}
	r := NewRegistry(d)
	person := r.Table("Person")

	var out strings.Builder
	w := NewFileWriter(&out, d)

	require.NoError(w.WriteComment("header"))
	stmt := NewInsert(person)
	stmt.Set(person.Column("name"), Plain("'alice'"))
	require.NoError(w.WriteStatement(stmt))
	require.NoError(w.WriteSectionSeparator())
	require.NoError(w.WriteComment("multi\nline"))
	require.NoError(w.Close())

	require.Equal(
		"-- header\n"+
			`INSERT INTO "Person" ("name") VALUES ('alice');`+"\n"+
			"\n"+
			"/* multi\nline */\n",
		out.String())
}

func TestConnectedWriter(t *testing.T) {
	require := require.New(t)
	db, mock, err := sqlmock.New()
	require.NoError(err)
	defer db.Close()

	d := dialect.SQLiteDialect{}
	r := NewRegistry(d)
	person := r.Table("Person")

	mock.ExpectExec(`INSERT INTO "Person" \("name"\) VALUES \('alice'\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := NewConnectedWriter(context.Background(), db, d)
	require.NoError(w.WriteComment("ignored"))
	require.NoError(w.WriteSectionSeparator())

	stmt := NewInsert(person)
	stmt.Set(person.Column("name"), Plain("'alice'"))
	require.NoError(w.WriteStatement(stmt))
	require.NoError(w.Close())

	require.NoError(mock.ExpectationsWereMet())
}

func TestConnectedWriterError(t *testing.T) {
	require := require.New(t)
	db, mock, err := sqlmock.New()
	require.NoError(err)
	defer db.Close()

	mock.ExpectExec("INSERT").WillReturnError(assert.AnError)

	w := NewConnectedWriter(context.Background(), db, dialect.PostgresDialect{})
	err = w.WriteStatement(RawStatement("INSERT INTO t (c) VALUES (1)"))
	require.ErrorIs(err, assert.AnError)
}
