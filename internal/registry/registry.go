package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/roach88/relmap/internal/engine"
	"github.com/roach88/relmap/internal/queryir"
	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/store"
)

// ErrNotRegistered is returned for types the registry has no table for.
var ErrNotRegistered = errors.New("type not registered")

// Registry maps entity types to their tables.
type Registry struct {
	store  store.Store
	tables map[reflect.Type]*engine.Table
	order  []reflect.Type
	logger *slog.Logger
}

// Option allows configuration of a registry.
type Option func(*Registry)

// WithLogger sets the logger of the registry and its tables.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New builds a table for every definition. The registry is always usable;
// err joins the schema errors of the types that were left out.
func New(st store.Store, defs []schema.Definition, opts ...Option) (*Registry, error) {
	r := &Registry{
		store:  st,
		tables: make(map[reflect.Type]*engine.Table),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	var errs []error
	for _, def := range withImplicitChildren(defs) {
		if err := r.register(def); err != nil {
			r.logger.Warn("type not registered", "type", typeName(def.Type), "error", err)
			errs = append(errs, err)
		}
	}
	errs = append(errs, r.dropOrphanCollections()...)

	return r, errors.Join(errs...)
}

// withImplicitChildren appends the child definition of every collection
// whose element type is not listed.
func withImplicitChildren(defs []schema.Definition) []schema.Definition {
	listed := make(map[reflect.Type]bool, len(defs))
	for _, d := range defs {
		listed[d.Type] = true
	}
	all := append([]schema.Definition(nil), defs...)
	for i := 0; i < len(all); i++ {
		d := all[i]
		if d.Kind != schema.KindCollection || d.Child == nil || listed[d.Child.Type] {
			continue
		}
		listed[d.Child.Type] = true
		all = append(all, *d.Child)
	}
	return all
}

func (r *Registry) register(def schema.Definition) error {
	if _, dup := r.tables[def.Type]; dup && def.Type != nil {
		return &schema.SchemaError{
			Code:    schema.ErrCodeDuplicateType,
			Type:    def.Type.String(),
			Message: "type is already registered",
		}
	}

	s, err := schema.Build(def)
	if err != nil {
		return err
	}

	for _, t := range r.order {
		if other := r.tables[t]; strings.EqualFold(other.Relation(), s.Relation) {
			return &schema.SchemaError{
				Code:    schema.ErrCodeDuplicateRelation,
				Type:    def.Type.String(),
				Message: fmt.Sprintf("relation %s is already used by %s", s.Relation, t),
			}
		}
	}

	r.tables[def.Type] = engine.New(s, r.store, engine.WithLogger(r.logger))
	r.order = append(r.order, def.Type)
	r.logger.Debug("type registered", "type", def.Type.String(), "relation", s.Relation, "kind", s.Kind.String())
	return nil
}

// dropOrphanCollections removes collections whose child type has no table,
// repeating until nested collections settle.
func (r *Registry) dropOrphanCollections() []error {
	var errs []error
	for changed := true; changed; {
		changed = false
		kept := r.order[:0]
		for _, t := range r.order {
			s := r.tables[t].Schema()
			if s.Kind == schema.KindCollection && r.tables[s.Child] == nil {
				delete(r.tables, t)
				err := &schema.SchemaError{
					Code:    schema.ErrCodeInvalidChild,
					Type:    t.String(),
					Message: fmt.Sprintf("child type %s is not registered", s.Child),
				}
				r.logger.Warn("type not registered", "type", t.String(), "error", err)
				errs = append(errs, err)
				changed = true
				continue
			}
			kept = append(kept, t)
		}
		r.order = kept
	}
	return errs
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// Types returns the registered types in registration order.
func (r *Registry) Types() []reflect.Type {
	return append([]reflect.Type(nil), r.order...)
}

// Table returns the table of t.
func (r *Registry) Table(t reflect.Type) (*engine.Table, bool) {
	tbl, ok := r.tables[t]
	return tbl, ok
}

// Columns returns the column definitions of t.
func (r *Registry) Columns(t reflect.Type) ([]store.ColumnDef, error) {
	tbl, err := r.table(t)
	if err != nil {
		return nil, err
	}
	return tbl.Describe(), nil
}

func (r *Registry) table(t reflect.Type) (*engine.Table, error) {
	tbl, ok := r.tables[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, typeName(t))
	}
	return tbl, nil
}

// tableOf returns the table for the dynamic type of e.
func (r *Registry) tableOf(e schema.Entity) (*engine.Table, error) {
	t := reflect.TypeOf(e)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("%w: %T", ErrNotRegistered, e)
	}
	if reflect.ValueOf(e).IsNil() {
		return nil, fmt.Errorf("nil %T: %w", e, engine.ErrWrongType)
	}
	return r.table(t.Elem())
}

// CreateRelations creates the relation of every registered type.
func (r *Registry) CreateRelations(ctx context.Context) error {
	for _, t := range r.order {
		if err := r.tables[t].CreateRelation(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Recreate drops and recreates every relation. All rows are lost.
func (r *Registry) Recreate(ctx context.Context) error {
	for _, t := range r.order {
		if err := r.tables[t].DropRelation(ctx); err != nil {
			return err
		}
	}
	r.logger.Info("relations dropped", "count", len(r.order))
	return r.CreateRelations(ctx)
}

// Count returns the number of rows of t.
func (r *Registry) Count(ctx context.Context, t reflect.Type) (int64, error) {
	tbl, err := r.table(t)
	if err != nil {
		return 0, err
	}
	return tbl.Count(ctx)
}

// Get returns the entity of type t with identity id, children attached.
func (r *Registry) Get(ctx context.Context, t reflect.Type, id int64) (schema.Entity, bool, error) {
	tbl, err := r.table(t)
	if err != nil {
		return nil, false, err
	}
	e, found, err := tbl.Get(ctx, id)
	if err != nil || !found {
		return nil, false, err
	}
	if err := r.attachChildren(ctx, tbl, []schema.Entity{e}); err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// GetAll returns every entity of type t, children attached.
func (r *Registry) GetAll(ctx context.Context, t reflect.Type) ([]schema.Entity, error) {
	tbl, err := r.table(t)
	if err != nil {
		return nil, err
	}
	es, err := tbl.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.attachChildren(ctx, tbl, es); err != nil {
		return nil, err
	}
	return es, nil
}

// GetWhere returns the entities of type t matching p, children attached.
func (r *Registry) GetWhere(ctx context.Context, t reflect.Type, p queryir.Predicate) ([]schema.Entity, error) {
	tbl, err := r.table(t)
	if err != nil {
		return nil, err
	}
	es, err := tbl.GetWhere(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := r.attachChildren(ctx, tbl, es); err != nil {
		return nil, err
	}
	return es, nil
}

// attachChildren loads the children of every collection entity in parents.
func (r *Registry) attachChildren(ctx context.Context, tbl *engine.Table, parents []schema.Entity) error {
	s := tbl.Schema()
	if s.Kind != schema.KindCollection {
		return nil
	}
	for _, parent := range parents {
		children, err := r.GetWhere(ctx, s.Child, queryir.Equal(schema.ParentIDColumn, parent.ID()))
		if err != nil {
			return fmt.Errorf("load children of %s %d: %w", s.Relation, parent.ID(), err)
		}
		s.Adopt(parent, children)
	}
	return nil
}

// Save saves e. For collections the parent is saved first, then every
// child with the parent's identity stamped on it.
func (r *Registry) Save(ctx context.Context, e schema.Entity) (bool, error) {
	tbl, err := r.tableOf(e)
	if err != nil {
		return false, err
	}
	ok, err := tbl.Save(ctx, e)
	if err != nil || !ok {
		return false, err
	}

	s := tbl.Schema()
	if s.Kind != schema.KindCollection {
		return true, nil
	}
	children := s.Children(e)
	for _, c := range children {
		c.SetParentID(e.ID())
	}
	return r.SaveAll(ctx, children)
}

// SaveAll saves every entity, continuing after failures, and reports true
// only when all saves succeeded. Entities may be of different types.
func (r *Registry) SaveAll(ctx context.Context, es []schema.Entity) (bool, error) {
	ok := true
	var errs []error
	for _, e := range es {
		saved, err := r.Save(ctx, e)
		if err != nil {
			errs = append(errs, err)
		}
		ok = ok && saved
	}
	return ok, errors.Join(errs...)
}

// Delete deletes e. For collections every child is deleted first; the
// result is true only when every child and the parent were deleted.
func (r *Registry) Delete(ctx context.Context, e schema.Entity) (bool, error) {
	tbl, err := r.tableOf(e)
	if err != nil {
		return false, err
	}

	s := tbl.Schema()
	if s.Kind != schema.KindCollection {
		return tbl.Delete(ctx, e)
	}

	var errs []error
	children := s.Children(e)
	deleted := 0
	for _, c := range children {
		ok, err := r.Delete(ctx, c)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			deleted++
		}
	}

	parentDeleted, err := tbl.Delete(ctx, e)
	if err != nil {
		errs = append(errs, err)
	}
	if deleted != len(children) {
		r.logger.Warn("collection partially deleted",
			"relation", s.Relation,
			"children", len(children),
			"deleted", deleted,
		)
	}
	return parentDeleted && deleted == len(children), errors.Join(errs...)
}

// DeleteAll deletes every entity, continuing after failures, and reports
// true only when all deletes succeeded.
func (r *Registry) DeleteAll(ctx context.Context, es []schema.Entity) (bool, error) {
	ok := true
	var errs []error
	for _, e := range es {
		deleted, err := r.Delete(ctx, e)
		if err != nil {
			errs = append(errs, err)
		}
		ok = ok && deleted
	}
	return ok, errors.Join(errs...)
}
