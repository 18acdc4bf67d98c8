package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/relmap"
	"github.com/roach88/relmap/internal/config"
	"github.com/roach88/relmap/internal/demo"
)

// RootOptions holds global flags and the settings resolved from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Overrides applied on top of the config file and environment when
	// the matching flag is set.
	Driver         string
	DSN            string
	StatementCache int
	LogLevel       string

	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the relmap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relmap",
		Short: "relmap - notes and todo lists on a relational store",
		Long: `relmap stores notes and todo lists through the relmap object-relational
mapper. It runs on SQLite by default; PostgreSQL and MySQL are selected with
--driver and --dsn, a config file, or RELMAP_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .yml or .cue)")
	flags.StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|pgx|mysql)")
	flags.StringVar(&opts.DSN, "dsn", "", "data source name")
	flags.IntVar(&opts.StatementCache, "statement-cache", 0, "prepared statement cache size, 0 disables")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewNoteCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// resolve loads the config, applies the flags that were set and builds
// the logger. Errors are reported through the formatter.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	f := o.formatter(cmd)

	cfg, err := config.Load(o.ConfigPath)
	if err == nil {
		flags := cmd.Flags()
		if flags.Changed("driver") {
			cfg.Driver = o.Driver
		}
		if flags.Changed("dsn") {
			cfg.DSN = o.DSN
		}
		if flags.Changed("statement-cache") {
			cfg.StatementCache = o.StatementCache
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = o.LogLevel
		}
		err = cfg.Validate()
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	o.Config = cfg

	level, _ := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// open connects to the configured database and registers the demo types.
// recreate drops every relation first.
func (o *RootOptions) open(f *OutputFormatter, recreate bool) (*relmap.DB, error) {
	f.VerboseLog("opening %s database %s", o.Config.Driver, o.Config.DSN)

	opts := []relmap.Option{
		relmap.WithLogger(o.Logger),
		relmap.WithStatementCache(o.Config.StatementCache),
	}
	if recreate {
		opts = append(opts, relmap.WithRecreate())
	}

	db, err := relmap.Open(o.Config.Driver, o.Config.DSN, demo.Definitions(), opts...)
	if relmap.IsSchemaError(err) {
		if db != nil {
			db.Close()
		}
		return nil, f.Fail(ExitCommandError, ErrCodeSchema, "entity types could not be registered", err)
	}
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeOpen, "failed to open database", err)
	}
	return db, nil
}

// withDB runs fn against the configured database and closes it afterwards.
func (o *RootOptions) withDB(cmd *cobra.Command, fn func(context.Context, *relmap.DB, *OutputFormatter) error) error {
	f := o.formatter(cmd)
	db, err := o.open(f, false)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			o.Logger.Error("error closing database", "error", closeErr)
		}
	}()
	return fn(cmd.Context(), db, f)
}
