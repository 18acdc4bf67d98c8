package querysql

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/relmap/internal/queryir"
	"github.com/roach88/relmap/internal/value"
)

// ColumnDef is one column of a relation to create.
type ColumnDef struct {
	Name       string
	Kind       value.Kind
	PrimaryKey bool
}

// ErrNoFilter is returned when an UPDATE or DELETE has no predicate.
var ErrNoFilter = errors.New("statement requires a filter")

// SQLCompiler compiles relmap statements to parameterized SQL.
//
// CRITICAL: every SELECT orders by the identity column so that rows come
// back in insertion order on every backend.
// CRITICAL: values are always parameterized, never interpolated.
//
// Statements are returned in the dialect's bind style; CompilePredicate
// returns the bare fragment with ? placeholders.
type SQLCompiler struct {
	Dialect Dialect

	// IDColumn is the identity column used for ordering.
	IDColumn string
}

// NewSQLCompiler creates a compiler for dialect d.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: d, IDColumn: "ID"}
}

// CompileSelect converts a Select to SQL.
func (c *SQLCompiler) CompileSelect(q queryir.Select) (string, []any, error) {
	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.CompilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s ASC",
		c.Dialect.Quote(q.From),
		whereClause,
		c.Dialect.Quote(c.IDColumn))

	return c.Dialect.Rebind(sql), params, nil
}

// CompileCount returns the row count statement of a relation.
func (c *SQLCompiler) CompileCount(relation string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", c.Dialect.Quote(relation))
}

// CompileInsert converts a row to an INSERT statement. Columns are sorted
// for deterministic output. On dialects with RETURNING the statement yields
// the generated identity.
func (c *SQLCompiler) CompileInsert(relation string, values map[string]value.Primitive) (string, []any) {
	keys := sortedKeys(values)

	var sql string
	switch {
	case len(keys) == 0 && c.Dialect == MySQL:
		sql = fmt.Sprintf("INSERT INTO %s () VALUES ()", c.Dialect.Quote(relation))
	case len(keys) == 0:
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", c.Dialect.Quote(relation))
	default:
		cols := make([]string, len(keys))
		marks := make([]string, len(keys))
		for i, k := range keys {
			cols[i] = c.Dialect.Quote(k)
			marks[i] = "?"
		}
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			c.Dialect.Quote(relation),
			strings.Join(cols, ", "),
			strings.Join(marks, ", "))
	}
	if c.Dialect.Returning() {
		sql += " RETURNING " + c.Dialect.Quote(c.IDColumn)
	}

	return c.Dialect.Rebind(sql), driverArgs(values, keys)
}

// CompileUpdate converts a partial row and a filter to an UPDATE statement.
func (c *SQLCompiler) CompileUpdate(relation string, values map[string]value.Primitive, filter queryir.Predicate) (string, []any, error) {
	if filter == nil {
		return "", nil, ErrNoFilter
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("update %s: no columns to set", relation)
	}
	keys := sortedKeys(values)
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = c.Dialect.Quote(k) + " = ?"
	}

	whereSQL, whereParams, err := c.CompilePredicate(filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		c.Dialect.Quote(relation),
		strings.Join(sets, ", "),
		whereSQL)

	params := append(driverArgs(values, keys), whereParams...)
	return c.Dialect.Rebind(sql), params, nil
}

// CompileDelete converts a filter to a DELETE statement.
func (c *SQLCompiler) CompileDelete(relation string, filter queryir.Predicate) (string, []any, error) {
	if filter == nil {
		return "", nil, ErrNoFilter
	}
	whereSQL, params, err := c.CompilePredicate(filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", c.Dialect.Quote(relation), whereSQL)
	return c.Dialect.Rebind(sql), params, nil
}

// CompileCreate returns the CREATE TABLE statement of a relation.
func (c *SQLCompiler) CompileCreate(relation string, cols []ColumnDef) string {
	defs := make([]string, 0, len(cols))
	for _, col := range cols {
		if col.PrimaryKey {
			defs = append(defs, c.Dialect.Quote(col.Name)+" "+c.Dialect.PrimaryKey())
			continue
		}
		defs = append(defs, c.Dialect.Quote(col.Name)+" "+c.Dialect.ColumnType(col.Kind))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		c.Dialect.Quote(relation),
		strings.Join(defs, ", "))
}

// CompileDrop returns the DROP TABLE statement of a relation.
func (c *SQLCompiler) CompileDrop(relation string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", c.Dialect.Quote(relation))
}

// CompilePredicate compiles a predicate to a WHERE fragment with ?
// placeholders and its ordered arguments. Invalid predicates are refused.
func (c *SQLCompiler) CompilePredicate(p queryir.Predicate) (string, []any, error) {
	if result := queryir.Validate(p); !result.Valid {
		return "", nil, fmt.Errorf("invalid predicate: %s", result.Error())
	}

	switch pred := p.(type) {
	case queryir.Comparison:
		return c.compileComparison(pred)
	case queryir.Group:
		return c.compileGroup(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileComparison compiles "column op ?".
func (c *SQLCompiler) compileComparison(cmp queryir.Comparison) (string, []any, error) {
	col := c.Dialect.Quote(cmp.Column)

	switch cmp.Op {
	case queryir.OpIn, queryir.OpNotIn:
		list := cmp.Value.([]any)
		marks := make([]string, len(list))
		params := make([]any, len(list))
		for i, v := range list {
			arg, err := value.Bind(v)
			if err != nil {
				return "", nil, fmt.Errorf("column %s: %w", cmp.Column, err)
			}
			marks[i] = "?"
			params[i] = arg
		}
		return fmt.Sprintf("%s %s (%s)", col, cmp.Op, strings.Join(marks, ", ")), params, nil

	case queryir.OpEqual, queryir.OpNotEqual:
		if cmp.Value == nil {
			if cmp.Op == queryir.OpEqual {
				return col + " IS NULL", nil, nil
			}
			return col + " IS NOT NULL", nil, nil
		}
	}

	arg, err := value.Bind(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("column %s: %w", cmp.Column, err)
	}
	op := string(cmp.Op)
	if cmp.Op == queryir.OpNotEqual {
		op = "<>"
	}
	return fmt.Sprintf("%s %s ?", col, op), []any{arg}, nil
}

// compileGroup joins the terms with the group's connective.
func (c *SQLCompiler) compileGroup(g queryir.Group) (string, []any, error) {
	parts := make([]string, 0, len(g.Terms))
	var params []any
	for _, term := range g.Terms {
		sql, termParams, err := c.compileComparison(term)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, termParams...)
	}
	return "(" + strings.Join(parts, " "+string(g.Conj)+" ") + ")", params, nil
}

// sortedKeys returns the keys of values in order, for deterministic SQL.
func sortedKeys(values map[string]value.Primitive) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func driverArgs(values map[string]value.Primitive, keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = value.Driver(values[k])
	}
	return args
}
