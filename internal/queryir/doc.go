// Package queryir provides the predicate representation used to filter
// relation rows.
//
// A Predicate is either a single Comparison or a Group of comparisons
// joined by one connective (AND or OR, chosen once per group; no mixing).
// Values are plain Go values; the SQL backend converts them with the same
// coercion rules used for column values.
//
//	[builders] → [queryir.Predicate] → [querysql] → SQL fragment + args
//
// SEALED INTERFACES:
//
// Predicate is sealed with a marker method. Only Comparison and Group
// implement it, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Comparison:
//	    // column op ?
//	case Group:
//	    // (t1 AND t2 ...)
//	}
//
// EMPTY GROUPS:
//
// A Group with zero terms is invalid. It never means "match everything";
// Validate reports it and the engine refuses to run it. Fetch every row
// with an unfiltered query instead.
//
// Column names passed to the builders are sanitized the same way schema
// column names are, so And(Equal("due_date", d)) addresses column duedate.
package queryir
