// Package schema discovers how a Go struct type is persisted.
//
// A persistable type is a struct whose pointer implements Entity. Build walks
// the type once at registration time and produces a Schema: an ordered list
// of Column descriptors plus a constructor. Per-row work never reflects over
// the type again; it goes through the precomputed descriptors.
//
// Members are discovered in this order:
//
//  1. the type's own fields tagged `relmap:"name"` (an empty name uses the
//     field name, "-" skips the field);
//  2. every untagged embedded struct, recursively (the parent types);
//  3. accessor members returned by StorageMembers on the type, declared
//     with Getter and Setter and paired by logical name.
//
// The reserved columns ID and ParentID come first in every schema.
//
// Column names are sanitized to ASCII letters. Two members whose names
// collide after sanitization are a registration error, not a silent merge.
//
// Example:
//
//	type Note struct {
//		schema.Record
//		Title string `relmap:"title"`
//		Done  bool   `relmap:"done"`
//	}
//
//	s, err := schema.Build(schema.Plain[Note]())
package schema
