package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelRegister(t *testing.T) {
	require := require.New(t)
	m := NewModel()

	require.NoError(m.Register(
		&Entity{Name: "Person", ID: &Field{Name: "id", Generated: GenerateSequence}},
		&Entity{Name: "Country", ID: &Field{Name: "id"}},
	))
	require.Equal([]string{"Person", "Country"}, m.Names())

	e, ok := m.Entity("Person")
	require.True(ok)
	require.Equal("Person", e.Name)

	_, ok = m.Entity("Address")
	require.False(ok)

	require.Error(m.Register(&Entity{Name: "Person"}))
	require.Error(m.Register(&Entity{}))
}

func TestNamingStrategy(t *testing.T) {
	assert.Equal(t, "firstName", NamingAsDeclared.Apply("firstName"))
	assert.Equal(t, "first_name", NamingUnderscore.Apply("firstName"))
	assert.Equal(t, "person", NamingUnderscore.Apply("Person"))
}

func TestRecord(t *testing.T) {
	require := require.New(t)
	r := New("Person").Set("name", "alice")
	require.Equal("Person", r.Type())
	require.Equal("alice", r.Get("name"))
	require.Nil(r.Get("age"))
	require.True(r.Has("name"))
	require.False(r.Has("age"))

	v := NewValue().Set("street", "Main St")
	require.Equal("", v.Type())
	require.Equal("Main St", v.Get("street"))
}
