package value

import (
	"fmt"
	"strconv"
	"time"
)

// Primitive is a sealed interface over the storage representations a
// relational store understands.
// Only Text, Integer, Real, Blob and Null implement it.
type Primitive interface {
	primitive() // Sealed
}

// Text is a TEXT column value.
type Text string

func (Text) primitive() {}

// Integer is an INTEGER column value. Booleans are stored as 0 and 1.
type Integer int64

func (Integer) primitive() {}

// Real is a REAL column value.
type Real float64

func (Real) primitive() {}

// Blob is a BLOB column value.
type Blob []byte

func (Blob) primitive() {}

// Null is an SQL NULL read back from the store.
type Null struct{}

func (Null) primitive() {}

// Driver converts a Primitive into an argument for database/sql.
func Driver(p Primitive) any {
	switch v := p.(type) {
	case Text:
		return string(v)
	case Integer:
		return int64(v)
	case Real:
		return float64(v)
	case Blob:
		return []byte(v)
	default:
		return nil
	}
}

// FromDriver converts a value scanned by a database/sql driver into a
// Primitive. Drivers differ in what they return (MySQL's text protocol
// returns []byte for every column), so restoring tolerates cross-kind
// representations, see asInteger and friends.
func FromDriver(v any) Primitive {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Primitive:
		return val
	case string:
		return Text(val)
	case []byte:
		return Blob(val)
	case int64:
		return Integer(val)
	case int:
		return Integer(val)
	case int32:
		return Integer(val)
	case int16:
		return Integer(val)
	case int8:
		return Integer(val)
	case uint8:
		return Integer(val)
	case uint16:
		return Integer(val)
	case uint32:
		return Integer(val)
	case uint64:
		return Integer(int64(val))
	case float64:
		return Real(val)
	case float32:
		return Real(val)
	case bool:
		if val {
			return Integer(1)
		}
		return Integer(0)
	case time.Time:
		return Text(val.Format(time.RFC3339Nano))
	default:
		return Text(fmt.Sprint(val))
	}
}

// asInteger reads p as an integer.
func asInteger(p Primitive) (int64, bool) {
	switch v := p.(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	case Text:
		return parseInteger(string(v))
	case Blob:
		return parseInteger(string(v))
	default:
		return 0, false
	}
}

func parseInteger(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	// Some drivers render integral REAL affinity as "1.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// asReal reads p as a float.
func asReal(p Primitive) (float64, bool) {
	switch v := p.(type) {
	case Real:
		return float64(v), true
	case Integer:
		return float64(v), true
	case Text:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	case Blob:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asText reads p as a string.
func asText(p Primitive) (string, bool) {
	switch v := p.(type) {
	case Text:
		return string(v), true
	case Blob:
		return string(v), true
	case Integer:
		return strconv.FormatInt(int64(v), 10), true
	case Real:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), true
	default:
		return "", false
	}
}

// asBlob reads p as bytes.
func asBlob(p Primitive) ([]byte, bool) {
	switch v := p.(type) {
	case Blob:
		return []byte(v), true
	case Text:
		return []byte(v), true
	default:
		return nil, false
	}
}
