package schema

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/roach88/relmap/internal/value"
)

// Column maps one persistable member onto one storage column.
type Column interface {
	// Name is the sanitized storage name.
	Name() string

	// Kind is the storage kind of the column.
	Kind() value.Kind

	// Extract reads the member of e as a storage primitive. It returns
	// false when e is of the wrong type or the value cannot be coerced.
	Extract(e Entity) (value.Primitive, bool)

	// Inject writes a stored primitive into the member of e. present is
	// false when the row has no such column. It returns false when nothing
	// was written.
	Inject(e Entity, p value.Primitive, present bool) bool
}

// SameColumn reports whether two descriptors address the same column.
// Descriptors are equal when their names are.
func SameColumn(a, b Column) bool {
	return a.Name() == b.Name()
}

// fieldColumn reads and writes a struct field directly.
type fieldColumn struct {
	name  string
	owner reflect.Type // root struct type
	field string
	path  []int
	codec value.Codec
}

func (c *fieldColumn) Name() string     { return c.name }
func (c *fieldColumn) Kind() value.Kind { return c.codec.Kind }

func (c *fieldColumn) String() string {
	return fmt.Sprintf("FieldColumn{field=%s, name=%s, kind=%s}", c.field, c.name, c.codec.Kind)
}

func (c *fieldColumn) target(e Entity) (reflect.Value, bool) {
	rv := reflect.ValueOf(e)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != c.owner {
		return reflect.Value{}, false
	}
	return rv.Elem().FieldByIndex(c.path), true
}

func (c *fieldColumn) Extract(e Entity) (value.Primitive, bool) {
	f, ok := c.target(e)
	if !ok {
		return nil, false
	}
	return c.codec.Store(f)
}

func (c *fieldColumn) Inject(e Entity, p value.Primitive, present bool) bool {
	f, ok := c.target(e)
	if !ok || !f.CanSet() {
		return false
	}
	v, ok := c.codec.Restore(p, present)
	if !ok {
		return false
	}
	f.Set(v)
	return true
}

// accessorColumn reads through a getter and writes through a setter.
// The closures receive a pointer to the struct that declared them, reached
// from the root through path.
type accessorColumn struct {
	name  string
	owner reflect.Type // root struct type; nil accepts any Entity
	path  []int
	codec value.Codec
	get   func(reflect.Value) reflect.Value
	set   func(reflect.Value, reflect.Value)
}

func (c *accessorColumn) Name() string     { return c.name }
func (c *accessorColumn) Kind() value.Kind { return c.codec.Kind }

func (c *accessorColumn) String() string {
	return fmt.Sprintf("AccessorColumn{name=%s, kind=%s}", c.name, c.codec.Kind)
}

func (c *accessorColumn) receiver(e Entity) (reflect.Value, bool) {
	rv := reflect.ValueOf(e)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, false
	}
	if c.owner == nil {
		return rv, true
	}
	if rv.Elem().Type() != c.owner {
		return reflect.Value{}, false
	}
	if len(c.path) == 0 {
		return rv, true
	}
	// Embedded levels may be unexported; the address is rebuilt so the
	// accessor can receive it.
	fv := rv.Elem().FieldByIndex(c.path)
	return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())), true
}

func (c *accessorColumn) Extract(e Entity) (value.Primitive, bool) {
	recv, ok := c.receiver(e)
	if !ok {
		return nil, false
	}
	return c.codec.Store(c.get(recv))
}

func (c *accessorColumn) Inject(e Entity, p value.Primitive, present bool) bool {
	recv, ok := c.receiver(e)
	if !ok {
		return false
	}
	v, ok := c.codec.Restore(p, present)
	if !ok {
		return false
	}
	c.set(recv, v)
	return true
}

var int64Codec = value.For(reflect.TypeFor[int64]())

// identityColumns returns the reserved ID and ParentID descriptors. They go
// through the Entity methods so that types overriding SetID (Members) keep
// their invariants on restore.
func identityColumns() []Column {
	return []Column{
		&accessorColumn{
			name:  IDColumn,
			codec: int64Codec,
			get:   func(recv reflect.Value) reflect.Value { return reflect.ValueOf(recv.Interface().(Entity).ID()) },
			set:   func(recv, v reflect.Value) { recv.Interface().(Entity).SetID(v.Int()) },
		},
		&accessorColumn{
			name:  ParentIDColumn,
			codec: int64Codec,
			get:   func(recv reflect.Value) reflect.Value { return reflect.ValueOf(recv.Interface().(Entity).ParentID()) },
			set:   func(recv, v reflect.Value) { recv.Interface().(Entity).SetParentID(v.Int()) },
		},
	}
}
