// Package value is the value type registry for relmap.
//
// It maps Go value types onto a closed set of storage kinds and converts
// values in both directions:
//
//	Go type                              Kind     Primitive
//	-------                              ----     ---------
//	string                               TEXT     Text
//	bool, int*, uint*                    INTEGER  Integer
//	float32, float64                     REAL     Real
//	[]byte                               BLOB     Blob
//	encoding.TextMarshaler               TEXT     Text
//	encoding.BinaryMarshaler             BLOB     Blob (opaque)
//	struct, map, slice, array            BLOB     Blob (opaque, JSON)
//	func, chan, complex, interface, ptr  UNSUPPORTED
//
// Lookup is by exact reflect kind first, then by the text marshaling
// capability, then by the opaque encoding fallback. The fallback only takes
// types encoding/json restores in full; a struct with an unexported field
// that is not an embedded struct is unsupported.
//
// Coercion is best effort: a value that cannot be converted is simply not
// written, and a stored value that cannot be decoded restores as "no value".
// Integer and real kinds never restore as "no value": a missing column or a
// NULL restores the zero value of the target type.
//
// This package imports nothing internal.
package value
