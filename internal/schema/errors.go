package schema

import (
	"errors"
	"fmt"
)

// SchemaError is a structural problem found while building a schema.
// It aborts registration of the affected type only.
type SchemaError struct {
	// Code identifies the error category.
	Code SchemaErrorCode

	// Type is the Go type being registered.
	Type string

	// Column is the logical member name involved, if any.
	Column string

	// Message is a human-readable description.
	Message string
}

// SchemaErrorCode categorizes schema errors.
type SchemaErrorCode string

const (
	// ErrCodeNotEntity indicates the pointer type does not implement Entity.
	ErrCodeNotEntity SchemaErrorCode = "NOT_ENTITY"

	// ErrCodeNoConstructor indicates no no-argument constructor is available.
	ErrCodeNoConstructor SchemaErrorCode = "NO_CONSTRUCTOR"

	// ErrCodeUnsupportedType indicates a member whose type has no storage kind.
	ErrCodeUnsupportedType SchemaErrorCode = "UNSUPPORTED_TYPE"

	// ErrCodeAccessorMismatch indicates a getter/setter pair that does not fit.
	ErrCodeAccessorMismatch SchemaErrorCode = "ACCESSOR_MISMATCH"

	// ErrCodeAmbiguousAccessor indicates more than two accessors share a name.
	ErrCodeAmbiguousAccessor SchemaErrorCode = "AMBIGUOUS_ACCESSOR"

	// ErrCodeUnpairedAccessor indicates a getter without setter or vice versa.
	ErrCodeUnpairedAccessor SchemaErrorCode = "UNPAIRED_ACCESSOR"

	// ErrCodeUnknownOwner indicates an accessor declared for a type that is
	// not part of the registered struct.
	ErrCodeUnknownOwner SchemaErrorCode = "UNKNOWN_OWNER"

	// ErrCodeDuplicateColumn indicates two members map to the same column.
	ErrCodeDuplicateColumn SchemaErrorCode = "DUPLICATE_COLUMN"

	// ErrCodeUnexportedField indicates a tagged field reflection cannot set.
	ErrCodeUnexportedField SchemaErrorCode = "UNEXPORTED_FIELD"

	// ErrCodeEmptyName indicates a name with no letters left after sanitizing.
	ErrCodeEmptyName SchemaErrorCode = "EMPTY_NAME"

	// ErrCodeInvalidChild indicates a collection whose child type could not
	// be registered.
	ErrCodeInvalidChild SchemaErrorCode = "INVALID_CHILD"

	// ErrCodeDuplicateType indicates a type registered more than once.
	ErrCodeDuplicateType SchemaErrorCode = "DUPLICATE_TYPE"

	// ErrCodeDuplicateRelation indicates two types mapped to one relation.
	ErrCodeDuplicateRelation SchemaErrorCode = "DUPLICATE_RELATION"
)

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s (type=%s, column=%s)", e.Code, e.Message, e.Type, e.Column)
	}
	return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.Type)
}

// IsSchemaError returns true if err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// HasCode returns true if err is or wraps a SchemaError with the given code.
// Joined errors are searched as well.
func HasCode(err error, code SchemaErrorCode) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *SchemaError:
		return e.Code == code
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return HasCode(e.Unwrap(), code)
	}
	return false
}
