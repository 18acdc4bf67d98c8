package engine

import "errors"

var (
	// ErrInvalidPredicate is returned by GetWhere for predicates that fail
	// validation or name columns the schema does not have.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrWrongType is returned when an entity of another type is passed
	// to a table.
	ErrWrongType = errors.New("entity type does not match table")
)
