package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap/internal/demo"
	"github.com/roach88/relmap/internal/querysql"
	"github.com/roach88/relmap/internal/registry"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the relations of every entity type",
		Long: `Print the columns of every entity type and the CREATE TABLE statement
for the configured driver. No connection is made.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd)
		},
	}
}

// ColumnView is the output form of a column.
type ColumnView struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
}

// RelationView is the output form of a registered type.
type RelationView struct {
	Type     string       `json:"type"`
	Relation string       `json:"relation"`
	Kind     string       `json:"kind"`
	Columns  []ColumnView `json:"columns"`
	DDL      string       `json:"ddl"`
}

// SchemaResult is the output of the schema command.
type SchemaResult struct {
	Dialect   string         `json:"dialect"`
	Relations []RelationView `json:"relations"`
}

func (r SchemaResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "-- dialect: %s\n", r.Dialect)
	for _, rel := range r.Relations {
		fmt.Fprintf(w, "\n-- %s (%s)\n", rel.Type, rel.Kind)
		if _, err := fmt.Fprintln(w, rel.DDL+";"); err != nil {
			return err
		}
	}
	return nil
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	dialect, err := opts.Config.Dialect()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	reg, err := registry.New(nil, demo.Definitions(), registry.WithLogger(opts.Logger))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeSchema, "entity types could not be registered", err)
	}

	compiler := querysql.NewSQLCompiler(dialect)
	result := SchemaResult{Dialect: string(dialect)}
	for _, t := range reg.Types() {
		tbl, _ := reg.Table(t)
		cols := tbl.Describe()

		view := RelationView{
			Type:     t.String(),
			Relation: tbl.Relation(),
			Kind:     tbl.Schema().Kind.String(),
			DDL:      compiler.CompileCreate(tbl.Relation(), cols),
		}
		for _, c := range cols {
			view.Columns = append(view.Columns, ColumnView{
				Name:       c.Name,
				Kind:       c.Kind.String(),
				Type:       dialect.ColumnType(c.Kind),
				PrimaryKey: c.PrimaryKey,
			})
		}
		result.Relations = append(result.Relations, view)
	}
	return f.Success(result)
}
