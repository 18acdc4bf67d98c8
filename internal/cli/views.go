package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/relmap/internal/demo"
)

// NoteView is the output form of a note.
type NoteView struct {
	ID       int64    `json:"id"`
	List     int64    `json:"list,omitempty"`
	Title    string   `json:"title"`
	Done     bool     `json:"done"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func noteView(n *demo.Note) NoteView {
	return NoteView{
		ID:       n.ID(),
		List:     n.ParentID(),
		Title:    n.Title,
		Done:     n.Done,
		Priority: n.Priority(),
		Tags:     n.Tags,
	}
}

func (v NoteView) WriteText(w io.Writer) error {
	mark := " "
	if v.Done {
		mark = "x"
	}
	line := fmt.Sprintf("%4d [%s] %s", v.ID, mark, v.Title)
	if v.Priority > 0 {
		line += fmt.Sprintf(" !%d", v.Priority)
	}
	if len(v.Tags) > 0 {
		line += " #" + strings.Join(v.Tags, " #")
	}
	if v.List != 0 {
		line += fmt.Sprintf(" (list %d)", v.List)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// NoteList is the output form of several notes.
type NoteList []NoteView

func noteList(notes []*demo.Note) NoteList {
	out := make(NoteList, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteView(n))
	}
	return out
}

func (l NoteList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "no notes")
		return err
	}
	for _, v := range l {
		if err := v.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}

// ListView is the output form of a todo list.
type ListView struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Token string   `json:"token"`
	Open  int      `json:"open"`
	Notes NoteList `json:"notes"`
}

func listView(l *demo.TodoList) ListView {
	return ListView{
		ID:    l.ID(),
		Name:  l.Name,
		Token: l.Token.String(),
		Open:  l.Open(),
		Notes: noteList(l.Items()),
	}
}

func (v ListView) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d %s (%d/%d open)\n", v.ID, v.Name, v.Open, len(v.Notes)); err != nil {
		return err
	}
	for _, n := range v.Notes {
		n.List = 0
		if err := n.WriteText(w); err != nil {
			return err
		}
	}
	return nil
}

// ListSummaries is the output form of several todo lists.
type ListSummaries []ListView

func (s ListSummaries) WriteText(w io.Writer) error {
	if len(s) == 0 {
		_, err := fmt.Fprintln(w, "no lists")
		return err
	}
	for _, v := range s {
		if _, err := fmt.Fprintf(w, "%4d %s (%d/%d open)\n", v.ID, v.Name, v.Open, len(v.Notes)); err != nil {
			return err
		}
	}
	return nil
}

// Counts maps relation names to row counts.
type Counts struct {
	Lists int64 `json:"lists"`
	Notes int64 `json:"notes"`
}

func (c Counts) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "lists: %d\nnotes: %d\n", c.Lists, c.Notes)
	return err
}
