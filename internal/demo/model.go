// Package demo holds the entity types of the relmap command line tool: notes
// and todo lists holding notes.
package demo

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/relmap/internal/schema"
)

// Note is a single todo entry.
type Note struct {
	schema.Record
	Title string   `relmap:"title"`
	Done  bool     `relmap:"done"`
	Tags  []string `relmap:"tags"`

	priority int
}

// Priority returns the note priority, 0 being the lowest.
func (n *Note) Priority() int { return n.priority }

// SetPriority clamps p to 0..9.
func (n *Note) SetPriority(p int) { n.priority = min(max(p, 0), 9) }

// StorageMembers implements schema.MemberProvider.
func (n *Note) StorageMembers() []schema.Member {
	return []schema.Member{
		schema.Getter("priority", (*Note).Priority),
		schema.Setter("priority", (*Note).SetPriority),
	}
}

func (n *Note) String() string {
	mark := " "
	if n.Done {
		mark = "x"
	}
	s := fmt.Sprintf("%d [%s] %s", n.ID(), mark, n.Title)
	if n.priority > 0 {
		s += fmt.Sprintf(" !%d", n.priority)
	}
	if len(n.Tags) > 0 {
		s += " #" + strings.Join(n.Tags, " #")
	}
	return s
}

// TodoList is a named collection of notes.
type TodoList struct {
	schema.Members[*Note]
	Name  string    `relmap:"name"`
	Token uuid.UUID `relmap:"token"`
}

// NewTodoList returns a list with a fresh share token.
func NewTodoList(name string) *TodoList {
	return &TodoList{Name: name, Token: uuid.New()}
}

// Open returns the number of notes not done.
func (l *TodoList) Open() int {
	n := 0
	for _, note := range l.Items() {
		if !note.Done {
			n++
		}
	}
	return n
}

func (l *TodoList) String() string {
	return fmt.Sprintf("%d %s (%d/%d open)", l.ID(), l.Name, l.Open(), l.Len())
}

// Definitions returns the definitions of every demo type. Note is
// registered through TodoList.
func Definitions() []schema.Definition {
	return []schema.Definition{
		schema.Collection[TodoList, Note](schema.WithName("todo_lists")),
	}
}
