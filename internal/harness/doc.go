// Package harness runs persistence scenarios against a fresh database.
//
// # Scenario Format
//
// Scenarios are YAML files. Steps refer to relations by name and to
// entities through refs bound by earlier steps:
//
//	name: cascade_delete
//	description: "Deleting a list deletes its notes"
//	flow:
//	  - op: save
//	    type: todolists
//	    ref: groceries
//	    set: { name: groceries }
//	  - op: save
//	    type: Note
//	    ref: milk
//	    parent: groceries
//	    set: { title: milk, tags: [shop] }
//	  - op: delete
//	    ref: groceries
//	    expect: { ok: true }
//	assertions:
//	  - type: count
//	    relation: Note
//	    count: 0
//
// # Operations
//
//   - save: create an entity of type, apply set, save it; with parent the
//     entity is added to that collection and the collection is saved
//   - update: apply set to ref and save it
//   - delete: delete ref
//   - get: load id of type and bind it to ref
//   - where: query type with conditions joined by AND, or OR with any
//   - count: count the rows of type
//
// Every step appends one TraceEvent. Events are numbered by a
// testutil.Sequence, so a scenario always produces the same trace and
// RunWithGolden can compare it against testdata/golden.
//
// # Assertion Types
//
//   - count: the relation holds count rows
//   - row: the entity with id has the expected column values
//   - children: the collection with id holds count children, each carrying
//     the collection's ID as ParentID
//   - missing: no entity with id exists
package harness
