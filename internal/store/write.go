package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/relmap/internal/queryir"
)

// CreateRelation implements Store.
func (d *DB) CreateRelation(ctx context.Context, name string, cols []ColumnDef) error {
	query := d.compiler.CompileCreate(name, cols)
	d.logger.Debug("create relation", "relation", name, "sql", query)

	// Schema changes invalidate prepared plans on some backends.
	d.stmts.clear()
	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create relation %s: %w", name, err)
	}
	return nil
}

// DropRelation implements Store.
func (d *DB) DropRelation(ctx context.Context, name string) error {
	query := d.compiler.CompileDrop(name)
	d.logger.Debug("drop relation", "relation", name, "sql", query)

	d.stmts.clear()
	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("drop relation %s: %w", name, err)
	}
	return nil
}

// Insert implements Store.
func (d *DB) Insert(ctx context.Context, relation string, values Values) (int64, error) {
	query, args := d.compiler.CompileInsert(relation, values)

	if d.dialect.Returning() {
		var id int64
		if err := d.scanRow(ctx, query, args, &id); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", relation, err)
		}
		return id, nil
	}

	res, err := d.exec(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", relation, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert into %s: generated id: %w", relation, err)
	}
	return id, nil
}

// Update implements Store.
func (d *DB) Update(ctx context.Context, relation string, values Values, filter queryir.Predicate) (int64, error) {
	query, args, err := d.compiler.CompileUpdate(relation, values, filter)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", relation, err)
	}
	res, err := d.exec(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", relation, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s: rows affected: %w", relation, err)
	}
	return n, nil
}

// Delete implements Store.
func (d *DB) Delete(ctx context.Context, relation string, filter queryir.Predicate) (int64, error) {
	query, args, err := d.compiler.CompileDelete(relation, filter)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", relation, err)
	}
	res, err := d.exec(ctx, query, args)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", relation, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete from %s: rows affected: %w", relation, err)
	}
	return n, nil
}

// exec runs a statement through the statement cache.
func (d *DB) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	d.logger.Debug("exec", "sql", query, "args", len(args))
	if d.stmts == nil {
		return d.db.ExecContext(ctx, query, args...)
	}
	stmt, err := d.stmts.prepare(ctx, d.db, query)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	return stmt.ExecContext(ctx, args...)
}
