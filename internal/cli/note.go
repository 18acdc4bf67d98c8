package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap"
	"github.com/roach88/relmap/internal/demo"
)

// NewNoteCommand creates the note command group.
func NewNoteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Add, list, complete and remove notes",
	}

	cmd.AddCommand(newNoteAddCommand(rootOpts))
	cmd.AddCommand(newNoteListCommand(rootOpts))
	cmd.AddCommand(newNoteDoneCommand(rootOpts))
	cmd.AddCommand(newNoteRemoveCommand(rootOpts))

	return cmd
}

// NoteAddOptions holds flags for note add.
type NoteAddOptions struct {
	*RootOptions
	Tags     []string
	Priority int
	List     int64
}

func newNoteAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NoteAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a note",
		Example: `  relmap note add "buy milk" --tag shop --priority 2
  relmap note add "call plumber" --list 1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				return runNoteAdd(ctx, db, f, opts, args[0])
			})
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Tags, "tag", "t", nil, "tag, repeatable")
	cmd.Flags().IntVarP(&opts.Priority, "priority", "p", 0, "priority 0-9")
	cmd.Flags().Int64VarP(&opts.List, "list", "l", 0, "add to the todo list with this id")

	return cmd
}

func runNoteAdd(ctx context.Context, db *relmap.DB, f *OutputFormatter, opts *NoteAddOptions, title string) error {
	note := &demo.Note{Title: title, Tags: opts.Tags}
	note.SetPriority(opts.Priority)

	var (
		ok  bool
		err error
	)
	if opts.List != 0 {
		list, found, getErr := relmap.Get[demo.TodoList](ctx, db, opts.List)
		if getErr != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to load list", getErr)
		}
		if !found {
			return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("list %d not found", opts.List), nil)
		}
		list.Add(note)
		ok, err = db.Save(ctx, list)
	} else {
		ok, err = db.Save(ctx, note)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to save note", err)
	}
	if !ok {
		return f.Fail(ExitFailure, ErrCodeIncomplete, "note was not saved", nil)
	}
	f.VerboseLog("saved note %d", note.ID())
	return f.Success(noteView(note))
}

// NoteListOptions holds flags for note ls.
type NoteListOptions struct {
	*RootOptions
	Open        bool
	Done        bool
	Match       string
	MinPriority int
	List        int64
	Tag         string
}

func newNoteListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NoteListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List notes",
		Long: `List notes ordered by id. Filters combine with AND; --match takes a SQL
LIKE pattern where % matches any run of characters.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Open && opts.Done {
				return opts.formatter(cmd).Fail(ExitCommandError, ErrCodeInvalidArgs, "--open and --done are exclusive", nil)
			}
			return opts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				return runNoteList(ctx, db, f, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Open, "open", false, "only notes not done")
	cmd.Flags().BoolVar(&opts.Done, "done", false, "only done notes")
	cmd.Flags().StringVarP(&opts.Match, "match", "m", "", "title LIKE pattern")
	cmd.Flags().IntVar(&opts.MinPriority, "min-priority", 0, "only notes with at least this priority")
	cmd.Flags().Int64VarP(&opts.List, "list", "l", 0, "only notes of this todo list")
	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "only notes with this tag")

	return cmd
}

// filter returns the predicate selected by the flags, or nil for all notes.
func (o *NoteListOptions) filter() relmap.Predicate {
	var terms []relmap.Comparison
	if o.Open {
		terms = append(terms, relmap.Equal("done", false))
	}
	if o.Done {
		terms = append(terms, relmap.Equal("done", true))
	}
	if o.Match != "" {
		terms = append(terms, relmap.Like("title", o.Match))
	}
	if o.MinPriority > 0 {
		terms = append(terms, relmap.GreaterOrEqual("priority", o.MinPriority))
	}
	if o.List != 0 {
		terms = append(terms, relmap.Equal("ParentID", o.List))
	}

	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	default:
		return relmap.And(terms...)
	}
}

func runNoteList(ctx context.Context, db *relmap.DB, f *OutputFormatter, opts *NoteListOptions) error {
	var (
		notes []*demo.Note
		err   error
	)
	if p := opts.filter(); p != nil {
		notes, err = relmap.Where[demo.Note](ctx, db, p)
	} else {
		notes, err = relmap.All[demo.Note](ctx, db)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to list notes", err)
	}

	// Tags are stored as one encoded value, so they are matched here.
	if opts.Tag != "" {
		notes = slices.DeleteFunc(notes, func(n *demo.Note) bool {
			return !slices.Contains(n.Tags, opts.Tag)
		})
	}
	return f.Success(noteList(notes))
}

func newNoteDoneCommand(rootOpts *RootOptions) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:           "done <id>",
		Short:         "Mark a note as done",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(f, args[0])
			if err != nil {
				return err
			}
			return rootOpts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				note, err := loadNote(ctx, db, f, id)
				if err != nil {
					return err
				}
				note.Done = !undo
				if ok, err := db.Save(ctx, note); err != nil || !ok {
					return f.Fail(ExitFailure, ErrCodeIncomplete, fmt.Sprintf("note %d was not saved", id), err)
				}
				return f.Success(noteView(note))
			})
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "mark as not done")

	return cmd
}

func newNoteRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <id>",
		Short:         "Remove a note",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(f, args[0])
			if err != nil {
				return err
			}
			return rootOpts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				note, err := loadNote(ctx, db, f, id)
				if err != nil {
					return err
				}
				if ok, err := db.Delete(ctx, note); err != nil || !ok {
					return f.Fail(ExitFailure, ErrCodeIncomplete, fmt.Sprintf("note %d was not removed", id), err)
				}
				return f.Success(fmt.Sprintf("removed note %d", id))
			})
		},
	}
}

func loadNote(ctx context.Context, db *relmap.DB, f *OutputFormatter, id int64) (*demo.Note, error) {
	note, found, err := relmap.Get[demo.Note](ctx, db, id)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to load note", err)
	}
	if !found {
		return nil, f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("note %d not found", id), nil)
	}
	return note, nil
}

func parseID(f *OutputFormatter, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, f.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Sprintf("invalid id %q", arg), err)
	}
	return id, nil
}
