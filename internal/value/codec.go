package value

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
)

// Codec converts values of one Go type to and from their storage primitive.
// The zero Codec is unsupported.
type Codec struct {
	// Type is the Go type this codec handles.
	Type reflect.Type
	// Kind is the storage kind values are written as.
	Kind Kind

	encode func(reflect.Value) (Primitive, bool)
	decode func(Primitive) (reflect.Value, bool)

	// numeric kinds restore as zero when the column is missing or NULL.
	numeric bool
}

// For returns the codec for t. It never fails: types relmap cannot store
// get a codec of kind KindUnsupported.
func For(t reflect.Type) Codec {
	if t == nil {
		return Codec{}
	}
	c := Codec{Type: t}

	switch t.Kind() {
	case reflect.String:
		c.Kind = KindText
		c.encode = func(v reflect.Value) (Primitive, bool) { return Text(v.String()), true }
		c.decode = func(p Primitive) (reflect.Value, bool) {
			s, ok := asText(p)
			if !ok {
				return reflect.Value{}, false
			}
			out := reflect.New(t).Elem()
			out.SetString(s)
			return out, true
		}
		return c

	case reflect.Bool:
		c.Kind, c.numeric = KindInteger, true
		c.encode = func(v reflect.Value) (Primitive, bool) {
			if v.Bool() {
				return Integer(1), true
			}
			return Integer(0), true
		}
		c.decode = func(p Primitive) (reflect.Value, bool) {
			n, _ := asInteger(p)
			out := reflect.New(t).Elem()
			out.SetBool(n > 0)
			return out, true
		}
		return c

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		c.Kind, c.numeric = KindInteger, true
		c.encode = func(v reflect.Value) (Primitive, bool) { return Integer(v.Int()), true }
		c.decode = func(p Primitive) (reflect.Value, bool) {
			out := reflect.New(t).Elem()
			if n, ok := asInteger(p); ok && !out.OverflowInt(n) {
				out.SetInt(n)
			}
			return out, true
		}
		return c

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// uint64 values above MaxInt64 are stored bit-for-bit as negative
		// integers; they round-trip but do not order correctly in SQL.
		c.Kind, c.numeric = KindInteger, true
		c.encode = func(v reflect.Value) (Primitive, bool) { return Integer(int64(v.Uint())), true }
		c.decode = func(p Primitive) (reflect.Value, bool) {
			out := reflect.New(t).Elem()
			if n, ok := asInteger(p); ok && !out.OverflowUint(uint64(n)) {
				out.SetUint(uint64(n))
			}
			return out, true
		}
		return c

	case reflect.Float32, reflect.Float64:
		c.Kind, c.numeric = KindReal, true
		c.encode = func(v reflect.Value) (Primitive, bool) { return Real(v.Float()), true }
		c.decode = func(p Primitive) (reflect.Value, bool) {
			out := reflect.New(t).Elem()
			if f, ok := asReal(p); ok {
				out.SetFloat(f)
			}
			return out, true
		}
		return c
	}

	if isBytes(t) {
		c.Kind = KindBlob
		c.encode = func(v reflect.Value) (Primitive, bool) { return Blob(bytes.Clone(v.Bytes())), true }
		c.decode = func(p Primitive) (reflect.Value, bool) {
			b, ok := asBlob(p)
			if !ok {
				return reflect.Value{}, false
			}
			out := reflect.New(t).Elem()
			out.SetBytes(bytes.Clone(b))
			return out, true
		}
		return c
	}

	if implements(t, textMarshalerType, textUnmarshalerType) {
		c.Kind = KindText
		c.encode = func(v reflect.Value) (Primitive, bool) {
			text, err := addressable(v).Interface().(encoding.TextMarshaler).MarshalText()
			if err != nil {
				return nil, false
			}
			return Text(text), true
		}
		c.decode = func(p Primitive) (reflect.Value, bool) {
			s, ok := asText(p)
			if !ok {
				return reflect.Value{}, false
			}
			ptr := reflect.New(t)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return reflect.Value{}, false
			}
			return ptr.Elem(), true
		}
		return c
	}

	if implements(t, binMarshalerType, binUnmarshalerType) {
		c.Kind = KindBlob
		c.encode = func(v reflect.Value) (Primitive, bool) {
			data, err := addressable(v).Interface().(encoding.BinaryMarshaler).MarshalBinary()
			if err != nil {
				return nil, false
			}
			return Blob(data), true
		}
		c.decode = func(p Primitive) (reflect.Value, bool) {
			b, ok := asBlob(p)
			if !ok || len(b) == 0 {
				return reflect.Value{}, false
			}
			ptr := reflect.New(t)
			if err := ptr.Interface().(encoding.BinaryUnmarshaler).UnmarshalBinary(b); err != nil {
				return reflect.Value{}, false
			}
			return ptr.Elem(), true
		}
		return c
	}

	if opaque(t) {
		c.Kind = KindBlob
		c.encode = func(v reflect.Value) (Primitive, bool) {
			data, err := json.Marshal(v.Interface())
			if err != nil {
				return nil, false
			}
			return Blob(data), true
		}
		c.decode = func(p Primitive) (reflect.Value, bool) {
			b, ok := asBlob(p)
			if !ok || len(b) == 0 {
				return reflect.Value{}, false
			}
			ptr := reflect.New(t)
			if err := json.Unmarshal(b, ptr.Interface()); err != nil {
				return reflect.Value{}, false
			}
			return ptr.Elem(), true
		}
		return c
	}

	return c
}

// Supported reports whether the codec can store values.
func (c Codec) Supported() bool {
	return c.Kind != KindUnsupported
}

// Store converts v to its storage primitive. It returns false when v cannot
// be coerced; callers skip the column in that case.
func (c Codec) Store(v reflect.Value) (Primitive, bool) {
	if c.encode == nil || !v.IsValid() || v.Type() != c.Type {
		return nil, false
	}
	return c.encode(v)
}

// Restore converts a stored primitive back into a value of the codec's type.
// present is false when the row has no such column.
//
// Missing columns and NULLs restore as the zero value for integer and real
// kinds and as "no value" (false) for every other kind. Undecodable bytes
// also restore as "no value".
func (c Codec) Restore(p Primitive, present bool) (reflect.Value, bool) {
	if c.decode == nil {
		return reflect.Value{}, false
	}
	if _, null := p.(Null); !present || p == nil || null {
		if c.numeric {
			return reflect.Zero(c.Type), true
		}
		return reflect.Value{}, false
	}
	return c.decode(p)
}

// Bind converts a predicate argument into a database/sql argument using the
// same coercion as column values. Primitives pass through unchanged.
func Bind(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Primitive:
		return Driver(val), nil
	}
	rv := reflect.ValueOf(v)
	c := For(rv.Type())
	if !c.Supported() {
		return nil, fmt.Errorf("unsupported argument type %s", rv.Type())
	}
	p, ok := c.Store(rv)
	if !ok {
		return nil, fmt.Errorf("cannot convert %s argument", rv.Type())
	}
	return Driver(p), nil
}

// addressable returns v, or an addressable copy of it, so that methods with
// pointer receivers can be called.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr
}
