package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Recreate bool
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the relations of every entity type",
		Long: `Create the relations of every entity type. Existing relations are kept
unless --recreate is given (or recreate is set in the config), which drops
them first and loses every row.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Recreate, "recreate", false, "drop and recreate every relation")

	return cmd
}

// InitResult lists the relations that are ready.
type InitResult struct {
	Relations []string `json:"relations"`
	Recreated bool     `json:"recreated"`
}

func (r InitResult) String() string {
	verb := "ready"
	if r.Recreated {
		verb = "recreated"
	}
	return "relations " + verb + ": " + strings.Join(r.Relations, ", ")
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	recreate := opts.Recreate || opts.Config.Recreate

	db, err := opts.open(f, recreate)
	if err != nil {
		return err
	}
	defer db.Close()

	result := InitResult{Recreated: recreate}
	for _, t := range db.Types() {
		tbl, _ := db.Table(t)
		result.Relations = append(result.Relations, tbl.Relation())
	}
	return f.Success(result)
}
