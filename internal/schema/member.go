package schema

import (
	"fmt"
	"reflect"
)

// Member is one half of an accessor-backed column: a getter or a setter
// declared for struct type T under a logical column name. Types return
// their members from StorageMembers; the introspector pairs a getter with
// the setter of the same name.
type Member struct {
	name      string
	setter    bool
	owner     reflect.Type // struct type the accessor is declared on
	valueType reflect.Type
	get       func(reflect.Value) reflect.Value
	set       func(reflect.Value, reflect.Value)
}

// MemberProvider is implemented by types that persist values through
// accessors instead of tagged fields. StorageMembers is called once, on a
// zero value, while the schema is built.
type MemberProvider interface {
	StorageMembers() []Member
}

var memberProviderType = reflect.TypeFor[MemberProvider]()

// Getter declares a read accessor for column name on *T.
func Getter[T, V any](name string, fn func(*T) V) Member {
	return Member{
		name:      name,
		owner:     reflect.TypeFor[T](),
		valueType: reflect.TypeFor[V](),
		get: func(recv reflect.Value) reflect.Value {
			v := fn(recv.Interface().(*T))
			return reflect.ValueOf(&v).Elem()
		},
	}
}

// Setter declares a write accessor for column name on *T.
func Setter[T, V any](name string, fn func(*T, V)) Member {
	return Member{
		name:      name,
		setter:    true,
		owner:     reflect.TypeFor[T](),
		valueType: reflect.TypeFor[V](),
		set: func(recv, v reflect.Value) {
			fn(recv.Interface().(*T), v.Interface().(V))
		},
	}
}

// Name returns the logical column name.
func (m Member) Name() string { return m.name }

func (m Member) String() string {
	role := "getter"
	if m.setter {
		role = "setter"
	}
	return fmt.Sprintf("%s %s(%s) on %s", role, m.name, m.valueType, m.owner)
}
