// Package engine implements generic CRUD for one entity schema.
//
// A Table turns entities into store rows through the schema's column
// descriptors and turns rows back into fresh entities. It knows nothing
// about collections; cascading lives in the registry.
//
// ENTITY LIFECYCLE:
//
//	Transient (ID == InvalidID)
//	    --Save (insert)--> Persisted (ID = generated)
//	    --Save (update)--> Persisted (ID unchanged)
//	    --Delete--------> Transient  (ID reset to InvalidID)
//
// Deleting a transient entity reports false with no error: there is
// nothing to delete.
//
// ERRORS:
//
// Store failures are returned as values together with a false result,
// never as panics. Values that cannot be coerced to or from their column
// kind are skipped and logged at warn level; the row is still written or
// read.
//
// CRITICAL PATTERNS:
//
// Predicates are validated before they reach the store. An empty group,
// an unknown operator or a column the schema does not have is refused
// with ErrInvalidPredicate, so a missing filter can never turn into
// "every row".
//
// SaveAll attempts every element, even after a failure, and reports the
// AND of the results. There is no transaction across rows.
package engine
