package relmap

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"github.com/roach88/relmap/internal/engine"
	"github.com/roach88/relmap/internal/queryir"
	"github.com/roach88/relmap/internal/registry"
	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/store"
)

type (
	Entity            = schema.Entity
	Record            = schema.Record
	Members[C Entity] = schema.Members[C]
	Member            = schema.Member
	Definition        = schema.Definition
	DefinitionOption  = schema.Option
	SchemaError       = schema.SchemaError
	Predicate         = queryir.Predicate
	Comparison        = queryir.Comparison
	Group             = queryir.Group
	Store             = store.Store
)

// InvalidID is the identity of an entity that was never saved.
const InvalidID = schema.InvalidID

var (
	ErrNotRegistered    = registry.ErrNotRegistered
	ErrInvalidPredicate = engine.ErrInvalidPredicate
	ErrWrongType        = engine.ErrWrongType
)

// Type returns the definition of the plain entity type T.
func Type[T any](opts ...DefinitionOption) Definition {
	return schema.Plain[T](opts...)
}

// CollectionOf returns the definition of collection P holding children C.
func CollectionOf[P, C any, PP interface {
	*P
	schema.Parent[*C]
}, CP interface {
	*C
	Entity
}](opts ...DefinitionOption) Definition {
	return schema.Collection[P, C, PP, CP](opts...)
}

// WithName overrides the relation name of a definition.
func WithName(name string) DefinitionOption {
	return schema.WithName(name)
}

// Getter declares a read accessor for column name on *T.
func Getter[T, V any](name string, fn func(*T) V) Member {
	return schema.Getter(name, fn)
}

// Setter declares a write accessor for column name on *T.
func Setter[T, V any](name string, fn func(*T, V)) Member {
	return schema.Setter(name, fn)
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	return schema.IsSchemaError(err)
}

func Equal(column string, v any) Comparison          { return queryir.Equal(column, v) }
func NotEqual(column string, v any) Comparison       { return queryir.NotEqual(column, v) }
func Less(column string, v any) Comparison           { return queryir.Less(column, v) }
func LessOrEqual(column string, v any) Comparison    { return queryir.LessOrEqual(column, v) }
func Greater(column string, v any) Comparison        { return queryir.Greater(column, v) }
func GreaterOrEqual(column string, v any) Comparison { return queryir.GreaterOrEqual(column, v) }
func Like(column, pattern string) Comparison         { return queryir.Like(column, pattern) }
func NotLike(column, pattern string) Comparison      { return queryir.NotLike(column, pattern) }
func In(column string, vs ...any) Comparison         { return queryir.In(column, vs...) }
func NotIn(column string, vs ...any) Comparison      { return queryir.NotIn(column, vs...) }
func And(terms ...Comparison) Group                  { return queryir.And(terms...) }
func Or(terms ...Comparison) Group                   { return queryir.Or(terms...) }

// DB is a registry of entity types bound to a store.
type DB struct {
	*registry.Registry
	store Store
	owned *store.DB
}

// Option configures Open and OpenSQLite.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	statementCache int
	recreate       bool
}

// WithLogger sets the logger of the store and every table.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStatementCache bounds the prepared statement cache. 0 disables it.
func WithStatementCache(size int) Option {
	return func(o *options) { o.statementCache = size }
}

// WithRecreate drops and recreates every relation when opening.
func WithRecreate() Option {
	return func(o *options) { o.recreate = true }
}

// New registers defs on st. The returned DB is always usable; err joins
// the schema errors of the definitions that were left out.
func New(st Store, defs ...Definition) (*DB, error) {
	return newDB(st, nil, slog.Default(), defs)
}

func newDB(st Store, owned *store.DB, logger *slog.Logger, defs []Definition) (*DB, error) {
	reg, err := registry.New(st, defs, registry.WithLogger(logger))
	return &DB{Registry: reg, store: st, owned: owned}, err
}

// Open connects to a database and creates the relation of every valid
// definition. Schema errors are returned together with a usable DB, as in
// New; any other error returns a nil DB.
func Open(driver, dsn string, defs []Definition, opts ...Option) (*DB, error) {
	o := options{logger: slog.Default(), statementCache: store.DefaultStatementCache}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(driver, dsn,
		store.WithLogger(o.logger),
		store.WithStatementCache(o.statementCache),
	)
	if err != nil {
		return nil, err
	}

	db, schemaErr := newDB(st, st, o.logger, defs)

	ctx := context.Background()
	if o.recreate {
		err = db.Recreate(ctx)
	} else {
		err = db.CreateRelations(ctx)
	}
	if err != nil {
		st.Close()
		return nil, err
	}
	return db, schemaErr
}

// OpenSQLite opens the SQLite database at path.
func OpenSQLite(path string, defs ...Definition) (*DB, error) {
	return Open("sqlite3", path, defs)
}

// Store returns the store the DB is bound to.
func (db *DB) Store() Store {
	return db.store
}

// Close closes the store when the DB opened it.
func (db *DB) Close() error {
	if db.owned == nil {
		return nil
	}
	return db.owned.Close()
}

// Get returns the T with identity id.
func Get[T any, PT interface {
	*T
	Entity
}](ctx context.Context, db *DB, id int64) (PT, bool, error) {
	e, found, err := db.Registry.Get(ctx, reflect.TypeFor[T](), id)
	if err != nil || !found {
		return nil, false, err
	}
	return e.(PT), true, nil
}

// All returns every T ordered by identity.
func All[T any, PT interface {
	*T
	Entity
}](ctx context.Context, db *DB) ([]PT, error) {
	es, err := db.Registry.GetAll(ctx, reflect.TypeFor[T]())
	return cast[PT](es), err
}

// Where returns every T matching p, ordered by identity.
func Where[T any, PT interface {
	*T
	Entity
}](ctx context.Context, db *DB, p Predicate) ([]PT, error) {
	es, err := db.Registry.GetWhere(ctx, reflect.TypeFor[T](), p)
	return cast[PT](es), err
}

// Count returns the number of stored T.
func Count[T any](ctx context.Context, db *DB) (int64, error) {
	return db.Registry.Count(ctx, reflect.TypeFor[T]())
}

// SaveAll saves every entity and reports whether all saves succeeded.
func SaveAll[E Entity](ctx context.Context, db *DB, es []E) (bool, error) {
	return db.Registry.SaveAll(ctx, entities(es))
}

// DeleteAll deletes every entity and reports whether all deletes succeeded.
func DeleteAll[E Entity](ctx context.Context, db *DB, es []E) (bool, error) {
	return db.Registry.DeleteAll(ctx, entities(es))
}

func cast[PT Entity](es []Entity) []PT {
	if es == nil {
		return nil
	}
	out := make([]PT, len(es))
	for i, e := range es {
		out[i] = e.(PT)
	}
	return out
}

func entities[E Entity](es []E) []Entity {
	out := make([]Entity, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// SchemaErrors unpacks the schema errors joined into err.
func SchemaErrors(err error) []*SchemaError {
	var out []*SchemaError
	var walk func(error)
	walk = func(err error) {
		var se *SchemaError
		switch e := err.(type) {
		case nil:
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		default:
			if errors.As(err, &se) {
				out = append(out, se)
			}
		}
	}
	walk(err)
	return out
}
