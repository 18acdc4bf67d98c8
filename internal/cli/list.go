package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap"
	"github.com/roach88/relmap/internal/demo"
)

// NewListCommand creates the list command group.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Create, show and remove todo lists",
		Long: `Todo lists own their notes: showing a list loads its notes and removing
a list removes every note in it.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "new <name>",
		Short:         "Create a todo list",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				list := demo.NewTodoList(args[0])
				if ok, err := db.Save(ctx, list); err != nil || !ok {
					return f.Fail(ExitFailure, ErrCodeIncomplete, "list was not saved", err)
				}
				return f.Success(listView(list))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "ls",
		Short:         "List todo lists",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				lists, err := relmap.All[demo.TodoList](ctx, db)
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeStore, "failed to list todo lists", err)
				}
				out := make(ListSummaries, 0, len(lists))
				for _, l := range lists {
					out = append(out, listView(l))
				}
				return f.Success(out)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "show <id>",
		Short:         "Show a todo list and its notes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(rootOpts.formatter(cmd), args[0])
			if err != nil {
				return err
			}
			return rootOpts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				list, err := loadList(ctx, db, f, id)
				if err != nil {
					return err
				}
				return f.Success(listView(list))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "rm <id>",
		Short:         "Remove a todo list and its notes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(rootOpts.formatter(cmd), args[0])
			if err != nil {
				return err
			}
			return rootOpts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				list, err := loadList(ctx, db, f, id)
				if err != nil {
					return err
				}
				notes := list.Len()
				ok, err := db.Delete(ctx, list)
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to remove list %d", id), err)
				}
				if !ok {
					return f.Fail(ExitFailure, ErrCodeIncomplete, fmt.Sprintf("list %d was only partially removed", id), nil)
				}
				return f.Success(fmt.Sprintf("removed list %d and %d note(s)", id, notes))
			})
		},
	})

	return cmd
}

func loadList(ctx context.Context, db *relmap.DB, f *OutputFormatter, id int64) (*demo.TodoList, error) {
	list, found, err := relmap.Get[demo.TodoList](ctx, db, id)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, "failed to load list", err)
	}
	if !found {
		return nil, f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("list %d not found", id), nil)
	}
	return list, nil
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count",
		Short:         "Count todo lists and notes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withDB(cmd, func(ctx context.Context, db *relmap.DB, f *OutputFormatter) error {
				var c Counts
				var err error
				if c.Lists, err = relmap.Count[demo.TodoList](ctx, db); err != nil {
					return f.Fail(ExitCommandError, ErrCodeStore, "failed to count lists", err)
				}
				if c.Notes, err = relmap.Count[demo.Note](ctx, db); err != nil {
					return f.Fail(ExitCommandError, ErrCodeStore, "failed to count notes", err)
				}
				return f.Success(c)
			})
		},
	}
}
