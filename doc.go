// Package relmap maps Go structs to relations and back.
//
// A persistable type is a struct whose pointer implements Entity, usually by
// embedding Record. Columns come from fields tagged `relmap:"name"` and from
// getter/setter pairs declared through StorageMembers:
//
//	type Note struct {
//		relmap.Record
//		Title string `relmap:"title"`
//		Done  bool   `relmap:"done"`
//	}
//
//	db, err := relmap.OpenSQLite("notes.db", relmap.Type[Note]())
//	ok, err := db.Save(ctx, &Note{Title: "milk"})
//	open, err := relmap.Where[Note](ctx, db, relmap.Equal("done", false))
//
// A collection embeds Members[*C] and is registered with CollectionOf. Its
// children are saved, loaded and deleted together with it and always carry
// the collection's ID as their ParentID.
//
// Nothing is transactional: multi-row operations keep going after a failure
// and report it, leaving the rows already written in place.
package relmap
