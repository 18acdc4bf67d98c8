package value

import (
	"encoding"
	"encoding/json"
	"reflect"
)

// Kind is the storage kind of a column.
type Kind int

const (
	// KindUnsupported marks a type relmap cannot store. Columns of this kind
	// are rejected at registration and never appear in relation definitions.
	KindUnsupported Kind = iota
	// KindText is stored as TEXT.
	KindText
	// KindInteger is stored as INTEGER.
	KindInteger
	// KindReal is stored as REAL.
	KindReal
	// KindBlob is stored as BLOB.
	KindBlob
)

// String returns the SQLite type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "TEXT"
	case KindInteger:
		return "INTEGER"
	case KindReal:
		return "REAL"
	case KindBlob:
		return "BLOB"
	default:
		return "UNSUPPORTED"
	}
}

// KindOf returns the storage kind for values of type t.
func KindOf(t reflect.Type) Kind {
	return For(t).Kind
}

var (
	bytesType           = reflect.TypeFor[[]byte]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	binMarshalerType    = reflect.TypeFor[encoding.BinaryMarshaler]()
	binUnmarshalerType  = reflect.TypeFor[encoding.BinaryUnmarshaler]()
	jsonMarshalerType   = reflect.TypeFor[json.Marshaler]()
	jsonUnmarshalerType = reflect.TypeFor[json.Unmarshaler]()
)

// implements reports whether t or *t implements both iface halves.
func implements(t, marshaler, unmarshaler reflect.Type) bool {
	ptr := reflect.PointerTo(t)
	return (t.Implements(marshaler) || ptr.Implements(marshaler)) && ptr.Implements(unmarshaler)
}

// isBytes reports whether t is a byte slice, named or not.
func isBytes(t reflect.Type) bool {
	return t == bytesType || (t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8)
}

// opaque reports whether t can round-trip through the JSON fallback.
// Only composite kinds qualify at the top level; a bare pointer or interface
// would restore ambiguously.
func opaque(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		return jsonable(t, map[reflect.Type]bool{})
	default:
		return false
	}
}

// jsonable walks t and reports whether encoding/json can encode and decode
// every reachable value. seen guards against recursive types.
func jsonable(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true

	if implements(t, jsonMarshalerType, jsonUnmarshalerType) ||
		implements(t, textMarshalerType, textUnmarshalerType) {
		return true
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return jsonable(t.Elem(), seen)
	case reflect.Map:
		switch t.Key().Kind() {
		case reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			if !implements(t.Key(), textMarshalerType, textUnmarshalerType) {
				return false
			}
		}
		return jsonable(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			switch {
			case !f.IsExported() && !(f.Anonymous && f.Type.Kind() == reflect.Struct):
				// encoding/json would drop the field, so the value cannot
				// be restored as stored.
				return false
			case f.Tag.Get("json") == "-":
				continue
			}
			if !jsonable(f.Type, seen) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
