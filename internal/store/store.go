package store

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/relmap/internal/queryir"
	"github.com/roach88/relmap/internal/querysql"
	"github.com/roach88/relmap/internal/value"
)

// Store is the relational store the persistence engine is built on.
type Store interface {
	// CreateRelation materializes a relation with the given columns. It is
	// a no-op when the relation exists.
	CreateRelation(ctx context.Context, name string, cols []ColumnDef) error

	// DropRelation removes a relation and its rows. It is a no-op when the
	// relation does not exist.
	DropRelation(ctx context.Context, name string) error

	// Query returns the rows of relation matching filter, ordered by
	// identity. A nil filter returns every row.
	Query(ctx context.Context, relation string, filter queryir.Predicate) (Rows, error)

	// Insert adds a row and returns its generated identity.
	Insert(ctx context.Context, relation string, values Values) (int64, error)

	// Update sets values on the rows matching filter and returns how many
	// rows were affected.
	Update(ctx context.Context, relation string, values Values, filter queryir.Predicate) (int64, error)

	// Delete removes the rows matching filter and returns how many were
	// removed.
	Delete(ctx context.Context, relation string, filter queryir.Predicate) (int64, error)

	// RowCount returns the number of rows in relation.
	RowCount(ctx context.Context, relation string) (int64, error)
}

// Rows iterates a query result.
//
//	for rows.Next() {
//	    p, ok := rows.Column("title")
//	}
type Rows interface {
	// Next advances to the next row. It returns false when no rows remain.
	Next() bool

	// Column returns the value of the named column in the current row and
	// whether the row has such a column.
	Column(name string) (value.Primitive, bool)

	// Err returns the error, if any, that ended iteration.
	Err() error

	// Close releases the result.
	Close() error
}

// Values is one row keyed by column name.
type Values map[string]value.Primitive

// ColumnDef is one column of a relation to create.
type ColumnDef = querysql.ColumnDef

// DefaultStatementCache is the default number of prepared statements kept.
const DefaultStatementCache = 64

// DB is a Store over database/sql.
type DB struct {
	db       *sqlx.DB
	dialect  querysql.Dialect
	compiler *querysql.SQLCompiler
	stmts    *stmtCache
	logger   *slog.Logger

	cacheSize int
}

var _ Store = (*DB)(nil)

// Option configures a DB.
type Option func(*DB)

// WithStatementCache sets how many prepared statements are kept. Zero
// disables preparing; statements are executed directly.
func WithStatementCache(size int) Option {
	return func(d *DB) {
		d.cacheSize = size
	}
}

// WithLogger sets the logger statements are traced to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(d *DB) {
		d.logger = l
	}
}

// Open connects to a database. driver is a database/sql driver name
// ("sqlite3", "pgx", "mysql"; "sqlite" and "postgres" are accepted as
// aliases) and dsn its data source name.
//
// SQLite databases are configured with:
//   - a single connection (one writer at a time)
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(driver, dsn string, opts ...Option) (*DB, error) {
	dialect, err := querysql.DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == querysql.SQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	d := &DB{
		db:        db,
		dialect:   dialect,
		compiler:  querysql.NewSQLCompiler(dialect),
		logger:    slog.Default(),
		cacheSize: DefaultStatementCache,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.stmts = newStmtCache(d.cacheSize)

	return d, nil
}

// OpenSQLite creates or opens a SQLite database at path.
func OpenSQLite(path string, opts ...Option) (*DB, error) {
	return Open("sqlite3", path, opts...)
}

// Close releases cached statements and closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	d.stmts.clear()
	return d.db.Close()
}

// Dialect returns the SQL dialect of the connection.
func (d *DB) Dialect() querysql.Dialect {
	return d.dialect
}

// SQL returns the underlying connection for direct queries.
// Use with caution - prefer using Store methods when available.
func (d *DB) SQL() *sqlx.DB {
	return d.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (d *DB) verifyPragma(name, expected string) error {
	var got string
	if err := d.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&got); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if got != expected {
		return fmt.Errorf("%s = %q, expected %q", name, got, expected)
	}
	return nil
}
