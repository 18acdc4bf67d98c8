package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/relmap/internal/queryir"
	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/store"
	"github.com/roach88/relmap/internal/value"
)

// Table is the persistence engine of one schema.
type Table struct {
	schema *schema.Schema
	store  store.Store
	logger *slog.Logger
}

// TableOption allows configuration of a table.
type TableOption func(*Table)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) TableOption {
	return func(t *Table) {
		t.logger = l
	}
}

// New creates the table of s on st. s must come from schema.Build.
func New(s *schema.Schema, st store.Store, opts ...TableOption) *Table {
	t := &Table{
		schema: s,
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("relation", s.Relation)
	return t
}

// Schema returns the schema the table maps.
func (t *Table) Schema() *schema.Schema {
	return t.schema
}

// Relation returns the relation name.
func (t *Table) Relation() string {
	return t.schema.Relation
}

// Describe returns the column definitions of the relation. Columns of
// unsupported kind are left out and ID is the primary key.
func (t *Table) Describe() []store.ColumnDef {
	defs := make([]store.ColumnDef, 0, len(t.schema.Columns))
	for _, c := range t.schema.Columns {
		if c.Kind() == value.KindUnsupported {
			continue
		}
		defs = append(defs, store.ColumnDef{
			Name:       c.Name(),
			Kind:       c.Kind(),
			PrimaryKey: c.Name() == schema.IDColumn,
		})
	}
	return defs
}

// CreateRelation creates the relation if it does not exist.
func (t *Table) CreateRelation(ctx context.Context) error {
	return t.store.CreateRelation(ctx, t.schema.Relation, t.Describe())
}

// DropRelation drops the relation and every row in it.
func (t *Table) DropRelation(ctx context.Context) error {
	return t.store.DropRelation(ctx, t.schema.Relation)
}

// Get returns the entity with identity id. found is false when no row has
// that identity.
func (t *Table) Get(ctx context.Context, id int64) (schema.Entity, bool, error) {
	entities, err := t.fetch(ctx, queryir.Equal(schema.IDColumn, id))
	if err != nil {
		return nil, false, err
	}
	if len(entities) == 0 {
		return nil, false, nil
	}
	return entities[0], true, nil
}

// GetAll returns every entity, ordered by identity.
func (t *Table) GetAll(ctx context.Context) ([]schema.Entity, error) {
	return t.fetch(ctx, nil)
}

// GetWhere returns the entities matching p, ordered by identity. Invalid
// predicates are refused with ErrInvalidPredicate.
func (t *Table) GetWhere(ctx context.Context, p queryir.Predicate) ([]schema.Entity, error) {
	if err := t.validate(p); err != nil {
		return nil, err
	}
	return t.fetch(ctx, p)
}

// validate checks p against the predicate rules and the schema's columns.
func (t *Table) validate(p queryir.Predicate) error {
	if result := queryir.Validate(p); !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidPredicate, result.Error())
	}
	var unknown []string
	for _, name := range queryir.Columns(p) {
		if _, ok := t.schema.Column(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: unknown column %s in %s", ErrInvalidPredicate, strings.Join(unknown, ", "), t.schema.Relation)
	}
	return nil
}

func (t *Table) fetch(ctx context.Context, filter queryir.Predicate) ([]schema.Entity, error) {
	rows, err := t.store.Query(ctx, t.schema.Relation, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []schema.Entity{}
	for rows.Next() {
		entities = append(entities, t.materialize(rows))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", t.schema.Relation, err)
	}
	return entities, nil
}

// materialize builds a fresh entity from the current row.
func (t *Table) materialize(rows store.Rows) schema.Entity {
	e := t.schema.New()
	for _, c := range t.schema.Columns {
		p, present := rows.Column(c.Name())
		if c.Inject(e, p, present) || !present {
			continue
		}
		if _, null := p.(value.Null); null {
			continue
		}
		t.logger.Warn("column value not restored",
			"column", c.Name(),
			"kind", c.Kind().String(),
		)
	}
	return e
}

// values extracts every non-identity column of e.
func (t *Table) values(e schema.Entity) store.Values {
	row := make(store.Values, len(t.schema.Columns))
	for _, c := range t.schema.Columns {
		if c.Name() == schema.IDColumn {
			continue
		}
		p, ok := c.Extract(e)
		if !ok {
			t.logger.Warn("column value not stored",
				"column", c.Name(),
				"kind", c.Kind().String(),
				"id", e.ID(),
			)
			continue
		}
		row[c.Name()] = p
	}
	return row
}

// Save inserts a transient entity, assigning its generated identity, or
// updates a persisted one. An update reports true only when a row with the
// entity's identity exists.
func (t *Table) Save(ctx context.Context, e schema.Entity) (bool, error) {
	if !t.schema.Owns(e) {
		return false, fmt.Errorf("save %T into %s: %w", e, t.schema.Relation, ErrWrongType)
	}

	if schema.Transient(e) {
		id, err := t.store.Insert(ctx, t.schema.Relation, t.values(e))
		if err != nil {
			return false, err
		}
		e.SetID(id)
		t.logger.Debug("entity inserted", "id", id)
		return true, nil
	}

	n, err := t.store.Update(ctx, t.schema.Relation, t.values(e), queryir.Equal(schema.IDColumn, e.ID()))
	if err != nil {
		return false, err
	}
	t.logger.Debug("entity updated", "id", e.ID(), "rows", n)
	return n > 0, nil
}

// SaveAll saves every entity, continuing after failures. It reports true
// only when every save succeeded; the errors of failed saves are joined.
func (t *Table) SaveAll(ctx context.Context, es []schema.Entity) (bool, error) {
	ok := true
	var errs []error
	for _, e := range es {
		saved, err := t.Save(ctx, e)
		if err != nil {
			errs = append(errs, err)
		}
		ok = ok && saved
	}
	return ok, errors.Join(errs...)
}

// Delete removes the row of a persisted entity and resets its identity to
// InvalidID. Deleting a transient entity reports false with no error.
func (t *Table) Delete(ctx context.Context, e schema.Entity) (bool, error) {
	if !t.schema.Owns(e) {
		return false, fmt.Errorf("delete %T from %s: %w", e, t.schema.Relation, ErrWrongType)
	}
	if schema.Transient(e) {
		return false, nil
	}

	id := e.ID()
	n, err := t.store.Delete(ctx, t.schema.Relation, queryir.Equal(schema.IDColumn, id))
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	e.SetID(schema.InvalidID)
	t.logger.Debug("entity deleted", "id", id)
	return true, nil
}

// Count returns the number of rows in the relation.
func (t *Table) Count(ctx context.Context) (int64, error) {
	return t.store.RowCount(ctx, t.schema.Relation)
}
