package queryir

import "github.com/roach88/relmap/internal/schema"

// Predicate represents a row filter.
//
// This is a sealed interface - only Comparison and Group implement it.
type Predicate interface {
	predicateNode()
}

// Op is a comparison operator.
type Op string

const (
	OpEqual          Op = "="
	OpNotEqual       Op = "!="
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
	OpLike           Op = "LIKE"
	OpNotLike        Op = "NOT LIKE"
	OpIn             Op = "IN"
	OpNotIn          Op = "NOT IN"
)

// Known reports whether op is one of the defined operators.
func (op Op) Known() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual,
		OpLike, OpNotLike, OpIn, OpNotIn:
		return true
	}
	return false
}

// Comparison binds one column, one operator and one value.
//
// Semantics:
//
//	<column> <op> ?
//
// For OpIn and OpNotIn, Value is a []any and expands to one placeholder
// per element. A nil Value with OpEqual or OpNotEqual compiles to IS NULL
// or IS NOT NULL.
type Comparison struct {
	Column string // sanitized column name
	Op     Op
	Value  any
}

func (Comparison) predicateNode() {}

// Conjunction is the connective of a Group.
type Conjunction string

const (
	ConjAnd Conjunction = "AND"
	ConjOr  Conjunction = "OR"
)

// Group joins comparisons with a single connective.
//
// Semantics:
//
//	(<t1> AND <t2> AND ... AND <tN>)
//	(<t1> OR <t2> OR ... OR <tN>)
//
// A Group with no terms is invalid.
type Group struct {
	Conj  Conjunction
	Terms []Comparison
}

func (Group) predicateNode() {}

// Select is an unordered fetch of every column of a relation. Backends
// always order rows by identity.
type Select struct {
	From   string    // relation name
	Filter Predicate // nil = every row
}

func compare(column string, op Op, v any) Comparison {
	return Comparison{Column: schema.Sanitize(column), Op: op, Value: v}
}

// Equal returns column = v.
func Equal(column string, v any) Comparison { return compare(column, OpEqual, v) }

// NotEqual returns column != v.
func NotEqual(column string, v any) Comparison { return compare(column, OpNotEqual, v) }

// Less returns column < v.
func Less(column string, v any) Comparison { return compare(column, OpLess, v) }

// LessOrEqual returns column <= v.
func LessOrEqual(column string, v any) Comparison { return compare(column, OpLessOrEqual, v) }

// Greater returns column > v.
func Greater(column string, v any) Comparison { return compare(column, OpGreater, v) }

// GreaterOrEqual returns column >= v.
func GreaterOrEqual(column string, v any) Comparison { return compare(column, OpGreaterOrEqual, v) }

// Like returns column LIKE pattern.
func Like(column, pattern string) Comparison { return compare(column, OpLike, pattern) }

// NotLike returns column NOT LIKE pattern.
func NotLike(column, pattern string) Comparison { return compare(column, OpNotLike, pattern) }

// In returns column IN (vs...).
func In(column string, vs ...any) Comparison { return compare(column, OpIn, vs) }

// NotIn returns column NOT IN (vs...).
func NotIn(column string, vs ...any) Comparison { return compare(column, OpNotIn, vs) }

// And joins terms with AND. And() is invalid.
func And(terms ...Comparison) Group { return Group{Conj: ConjAnd, Terms: terms} }

// Or joins terms with OR. Or() is invalid.
func Or(terms ...Comparison) Group { return Group{Conj: ConjOr, Terms: terms} }

// Columns returns the column names referenced by p, in order.
func Columns(p Predicate) []string {
	switch pred := p.(type) {
	case Comparison:
		return []string{pred.Column}
	case Group:
		out := make([]string, 0, len(pred.Terms))
		for _, t := range pred.Terms {
			out = append(out, t.Column)
		}
		return out
	}
	return nil
}
