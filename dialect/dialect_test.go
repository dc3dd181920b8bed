package dialect

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range []string{Postgres, MySQL, SQLite} {
		d, err := New(name)
		require.NoError(t, err)
		require.Equal(t, name, d.Name())
	}
	_, err := New("oracle")
	require.Error(t, err)
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"Person"`, PostgresDialect{}.Quote("Person"))
	assert.Equal(t, "`Person`", MySQLDialect{}.Quote("Person"))
	assert.Equal(t, `"Person"`, SQLiteDialect{}.Quote("Person"))
	assert.Equal(t, "person", PostgresDialect{}.Fold("Person"))
	assert.Equal(t, "Person", MySQLDialect{}.Fold("Person"))
}

func TestStringLiteral(t *testing.T) {
	assert.Equal(t, "'alice'", PostgresDialect{}.StringLiteral("alice"))
	assert.Equal(t, "'it''s'", PostgresDialect{}.StringLiteral("it's"))
	assert.Equal(t, `E'a\\b'`, PostgresDialect{}.StringLiteral(`a\b`))
	assert.Equal(t, `'a\\b'`, MySQLDialect{}.StringLiteral(`a\b`))
	assert.Equal(t, "'it''s'", SQLiteDialect{}.StringLiteral("it's"))
}

func TestLiteral(t *testing.T) {
	require := require.New(t)
	d := PostgresDialect{}

	s, err := Literal(d, nil)
	require.NoError(err)
	require.Equal("NULL", s)

	s, err = Literal(d, 42)
	require.NoError(err)
	require.Equal("42", s)

	s, err = Literal(d, int64(7))
	require.NoError(err)
	require.Equal("7", s)

	s, err = Literal(d, true)
	require.NoError(err)
	require.Equal("true", s)

	s, err = Literal(MySQLDialect{}, true)
	require.NoError(err)
	require.Equal("1", s)

	s, err = Literal(d, 1.5)
	require.NoError(err)
	require.Equal("1.5", s)

	ts := time.Date(2020, 4, 1, 12, 30, 0, 0, time.UTC)
	s, err = Literal(d, ts)
	require.NoError(err)
	require.Equal("timestamp '2020-04-01 12:30:00'", s)

	s, err = Literal(d, []byte{0xde, 0xad})
	require.NoError(err)
	require.Equal(`'\xdead'`, s)

	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	s, err = Literal(d, id)
	require.NoError(err)
	require.Equal("'123e4567-e89b-12d3-a456-426614174000'", s)

	_, err = Literal(d, struct{}{})
	require.Error(err)
}

func TestSequences(t *testing.T) {
	d := PostgresDialect{}
	assert.True(t, d.SupportsSequences())
	assert.Equal(t, "nextval('person_seq')", d.NextSequenceValue("person_seq", 1))
	assert.Equal(t, "currval('person_seq')", d.CurrentSequenceValue("person_seq"))
	assert.Equal(t, "SELECT setval('person_seq', 10)", d.AlignSequence("person_seq", 10))

	assert.False(t, MySQLDialect{}.SupportsSequences())
	assert.Equal(t, "ALTER TABLE `Person` AUTO_INCREMENT = 11", MySQLDialect{}.AlignIdentity("Person", "id", 10))
	assert.Equal(t,
		"INSERT OR REPLACE INTO sqlite_sequence (name, seq) VALUES ('Person', 10)",
		SQLiteDialect{}.AlignIdentity("Person", "id", 10))
}

func TestComment(t *testing.T) {
	d := PostgresDialect{}
	assert.Equal(t, "-- hello", d.Comment("hello"))
	assert.Equal(t, "/* a\nb */", d.Comment("a\nb"))
	assert.Equal(t, "-- a*/b", d.Comment("a*/b"))
	assert.Equal(t, "/* a\n* /b */", d.Comment("a\n*/b"))
}
