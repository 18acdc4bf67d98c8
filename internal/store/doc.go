// Package store is the relational collaborator behind relmap.
//
// The engine reaches storage only through the Store interface: create and
// drop relations, filtered queries, inserts that report the generated
// identity, filtered updates and deletes, and row counts. DB implements it
// over database/sql for SQLite (github.com/mattn/go-sqlite3), PostgreSQL
// (github.com/jackc/pgx/v5/stdlib) and MySQL (github.com/go-sql-driver/mysql).
//
// # Critical Patterns
//
// Deterministic query results
//   - Every SELECT orders by the identity column.
//
// Parameterized statements
//   - Values are never interpolated; statements are compiled by querysql
//     and prepared once per connection pool through a bounded LRU cache.
//
// Buffered rows
//   - Query reads the whole result before returning. Collection loads issue
//     nested queries while iterating a parent result, which would deadlock
//     on SQLite's single connection with a streaming cursor.
//
// SQLite connections are limited to one, with WAL journaling, NORMAL
// synchronous mode, a 5 second busy timeout and foreign keys enabled.
package store
