package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult lists the problems that make a predicate unusable.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes every rule the predicate breaks.
	Problems []string
}

// Error joins the problems into one message.
func (r ValidationResult) Error() string {
	return strings.Join(r.Problems, "; ")
}

// Validate checks a predicate before it is compiled.
//
// Rules:
//  1. the predicate is not nil;
//  2. a Group has at least one term and a known connective;
//  3. every comparison names a column and uses a known operator;
//  4. IN and NOT IN carry a non-empty []any;
//  5. only = and != accept a nil value.
//
// Validate is a pure function with no side effects.
func Validate(p Predicate) ValidationResult {
	v := &validator{}
	v.validatePredicate(p)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Comparison:
		v.validateComparison(pred)
	case Group:
		v.validateGroup(pred)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateGroup(g Group) {
	if g.Conj != ConjAnd && g.Conj != ConjOr {
		v.addProblem("unknown connective %q", g.Conj)
	}
	if len(g.Terms) == 0 {
		v.addProblem("group has no comparisons")
		return
	}
	for _, t := range g.Terms {
		v.validateComparison(t)
	}
}

func (v *validator) validateComparison(c Comparison) {
	if c.Column == "" {
		v.addProblem("comparison without column")
	}
	if !c.Op.Known() {
		v.addProblem("column %q: unknown operator %q", c.Column, c.Op)
		return
	}

	switch c.Op {
	case OpIn, OpNotIn:
		list, ok := c.Value.([]any)
		if !ok {
			v.addProblem("column %q: %s needs a value list, got %T", c.Column, c.Op, c.Value)
		} else if len(list) == 0 {
			v.addProblem("column %q: %s with empty value list", c.Column, c.Op)
		}
	case OpEqual, OpNotEqual:
	default:
		if c.Value == nil {
			v.addProblem("column %q: %s with nil value", c.Column, c.Op)
		}
	}
}
