package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/relmap/internal/queryir"
	"github.com/roach88/relmap/internal/value"
)

// Query implements Store. Rows are read completely before Query returns.
func (d *DB) Query(ctx context.Context, relation string, filter queryir.Predicate) (Rows, error) {
	query, args, err := d.compiler.CompileSelect(queryir.Select{From: relation, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", relation, err)
	}
	d.logger.Debug("query", "sql", query, "args", len(args))

	var rows *sqlx.Rows
	if d.stmts == nil {
		rows, err = d.db.QueryxContext(ctx, query, args...)
	} else {
		var stmt *sqlx.Stmt
		stmt, err = d.stmts.prepare(ctx, d.db, query)
		if err == nil {
			rows, err = stmt.QueryxContext(ctx, args...)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", relation, err)
	}
	defer rows.Close()

	var result []Values
	for rows.Next() {
		raw := map[string]any{}
		if err := rows.MapScan(raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", relation, err)
		}
		row := make(Values, len(raw))
		for name, v := range raw {
			row[name] = value.FromDriver(v)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", relation, err)
	}

	return NewRows(result), nil
}

// RowCount implements Store.
func (d *DB) RowCount(ctx context.Context, relation string) (int64, error) {
	var n int64
	if err := d.scanRow(ctx, d.compiler.CompileCount(relation), nil, &n); err != nil {
		return 0, fmt.Errorf("count %s: %w", relation, err)
	}
	return n, nil
}

// scanRow runs a single-row query through the statement cache and scans
// the result into dest.
func (d *DB) scanRow(ctx context.Context, query string, args []any, dest ...any) error {
	d.logger.Debug("query row", "sql", query, "args", len(args))
	if d.stmts == nil {
		return d.db.QueryRowxContext(ctx, query, args...).Scan(dest...)
	}
	stmt, err := d.stmts.prepare(ctx, d.db, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	return stmt.QueryRowxContext(ctx, args...).Scan(dest...)
}

// sliceRows is a Rows over rows held in memory.
type sliceRows struct {
	rows []Values
	pos  int
}

// NewRows returns a Rows iterating rows in order.
func NewRows(rows []Values) Rows {
	return &sliceRows{rows: rows, pos: -1}
}

func (r *sliceRows) Next() bool {
	if r.pos+1 >= len(r.rows) {
		r.pos = len(r.rows)
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Column(name string) (value.Primitive, bool) {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, false
	}
	p, ok := r.rows[r.pos][name]
	return p, ok
}

func (r *sliceRows) Err() error   { return nil }
func (r *sliceRows) Close() error { return nil }
