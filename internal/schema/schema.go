package schema

import (
	"reflect"
)

// Kind distinguishes plain entities from collection entities.
type Kind int

const (
	// KindPlain is an entity without children.
	KindPlain Kind = iota
	// KindCollection is an entity owning a sequence of child entities.
	KindCollection
)

func (k Kind) String() string {
	if k == KindCollection {
		return "collection"
	}
	return "plain"
}

var entityType = reflect.TypeFor[Entity]()

// Definition describes a type to register. Build it with Plain, Define or
// Collection.
type Definition struct {
	// Type is the struct type whose pointer implements Entity.
	Type reflect.Type

	// Name overrides the relation name. Empty uses the type name.
	Name string

	// Kind is KindCollection for definitions built with Collection.
	Kind Kind

	// Child describes the element type of a collection.
	Child *Definition

	// New returns a fresh zero entity, or is nil when the type has no
	// no-argument constructor.
	New func() Entity

	items   func(Entity) []Entity
	replace func(Entity, []Entity)
}

// Option customizes a Definition.
type Option func(*Definition)

// WithName sets the relation name. The name is sanitized like column names.
func WithName(name string) Option {
	return func(d *Definition) { d.Name = name }
}

// Plain returns the definition of a plain entity type.
func Plain[T any](opts ...Option) Definition {
	return Define(reflect.TypeFor[T](), opts...)
}

// Define returns the definition of a plain entity type known only at run
// time. Type problems are reported by Build, not here.
func Define(t reflect.Type, opts ...Option) Definition {
	d := Definition{Type: t, Kind: KindPlain}
	if t != nil && t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(entityType) {
		d.New = func() Entity { return reflect.New(t).Interface().(Entity) }
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Collection returns the definition of collection type P whose children
// are *C. P usually embeds Members[*C].
func Collection[P, C any, PP interface {
	*P
	Parent[*C]
}, CP interface {
	*C
	Entity
}](opts ...Option) Definition {
	child := Plain[C]()
	d := Definition{
		Type:  reflect.TypeFor[P](),
		Kind:  KindCollection,
		Child: &child,
		New:   func() Entity { return PP(new(P)) },
		items: func(e Entity) []Entity {
			src := e.(PP).Items()
			out := make([]Entity, 0, len(src))
			for _, c := range src {
				out = append(out, CP(c))
			}
			return out
		},
		replace: func(e Entity, children []Entity) {
			typed := make([]*C, 0, len(children))
			for _, c := range children {
				typed = append(typed, (*C)(c.(CP)))
			}
			e.(PP).Replace(typed)
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Schema is the persistence mapping of one entity type.
type Schema struct {
	// Type is the struct type; entities are *Type.
	Type reflect.Type

	// Relation is the sanitized relation name.
	Relation string

	// Columns are ordered: ID, ParentID, then discovered members.
	Columns []Column

	// Kind is the schema kind.
	Kind Kind

	// Child is the element type of a collection, nil for plain schemas.
	Child reflect.Type

	// New returns a fresh zero entity.
	New func() Entity

	items   func(Entity) []Entity
	replace func(Entity, []Entity)
}

// Column returns the column with the given sanitized name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Owns reports whether e is a non-nil entity of this schema.
func (s *Schema) Owns(e Entity) bool {
	if e == nil {
		return false
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && !v.IsNil() && v.Type().Elem() == s.Type
}

// Children returns the current children of a collection entity, or nil for
// plain schemas.
func (s *Schema) Children(e Entity) []Entity {
	if s.items == nil {
		return nil
	}
	return s.items(e)
}

// Adopt replaces the children of a collection entity. It is a no-op for
// plain schemas.
func (s *Schema) Adopt(e Entity, children []Entity) {
	if s.replace == nil {
		return
	}
	s.replace(e, children)
}
