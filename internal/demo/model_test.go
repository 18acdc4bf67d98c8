package demo

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/value"
)

func TestDefinitionsBuild(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 1)

	list, err := schema.Build(defs[0])
	require.NoError(t, err)
	assert.Equal(t, "todolists", list.Relation)

	tok, ok := list.Column("token")
	require.True(t, ok)
	assert.Equal(t, value.KindText, tok.Kind())

	note, err := schema.Build(*defs[0].Child)
	require.NoError(t, err)
	assert.Equal(t, "Note", note.Relation)

	var names []string
	for _, c := range note.Columns {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"ID", "ParentID", "title", "done", "tags", "priority"}, names)
}

func TestNote_PriorityRoundTrip(t *testing.T) {
	s, err := schema.Build(schema.Plain[Note]())
	require.NoError(t, err)
	col, ok := s.Column("priority")
	require.True(t, ok)

	n := &Note{}
	n.SetPriority(12)
	p, ok := col.Extract(n)
	require.True(t, ok)

	var restored Note
	require.True(t, col.Inject(&restored, p, true))
	assert.Equal(t, 9, restored.Priority())
}

func TestNote_String(t *testing.T) {
	n := &Note{Title: "milk", Done: true, Tags: []string{"shop", "today"}}
	n.SetID(3)
	n.SetPriority(2)
	assert.Equal(t, "3 [x] milk !2 #shop #today", n.String())
}

func TestTodoList(t *testing.T) {
	l := NewTodoList("groceries")
	assert.NotEqual(t, uuid.Nil, l.Token)

	l.Add(&Note{Title: "a"}, &Note{Title: "b", Done: true})
	assert.Equal(t, 1, l.Open())
	assert.Equal(t, "0 groceries (1/2 open)", l.String())
}
