package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/value"
)

// AssertionError is returned when an assertion or expect clause fails.
type AssertionError struct {
	Type     string // assertion type or step op
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(exp *Expect, ev TraceEvent) []string {
	if exp == nil {
		return nil
	}
	var msgs []string
	mismatch := func(field string, want, got any) {
		msgs = append(msgs, (&AssertionError{Type: field, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}).Error())
	}

	if exp.OK != nil && (ev.OK == nil || *ev.OK != *exp.OK) {
		mismatch("ok", *exp.OK, deref(ev.OK))
	}
	if exp.Found != nil && (ev.Found == nil || *ev.Found != *exp.Found) {
		mismatch("found", *exp.Found, deref(ev.Found))
	}
	if exp.Count != nil && (ev.Count == nil || *ev.Count != *exp.Count) {
		mismatch("count", *exp.Count, deref(ev.Count))
	}
	if exp.IDs != nil && !slices.Equal(exp.IDs, ev.IDs) {
		mismatch("ids", exp.IDs, ev.IDs)
	}
	switch {
	case exp.Error == "" && ev.Error != "":
		mismatch("error", "none", ev.Error)
	case exp.Error != "" && !strings.Contains(ev.Error, exp.Error):
		mismatch("error", fmt.Sprintf("%q", exp.Error), fmt.Sprintf("%q", ev.Error))
	}
	return msgs
}

func deref[T any](p *T) any {
	if p == nil {
		return "<unset>"
	}
	return *p
}

// evaluateAssertions checks the final state of the database.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion) []error {
	var errs []error
	for i, a := range assertions {
		if err := h.evaluate(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("assertions[%d]: %w", i, err))
		}
	}
	return errs
}

func (h *Harness) evaluate(ctx context.Context, a Assertion) error {
	t, s, err := h.typeOf(a.Relation)
	if err != nil {
		return err
	}

	if a.Type == AssertCount {
		n, err := h.reg.Count(ctx, t)
		if err != nil {
			return err
		}
		if n != *a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d rows in %s", *a.Count, a.Relation), Actual: fmt.Sprint(n)}
		}
		return nil
	}

	e, found, err := h.reg.Get(ctx, t, a.ID)
	if err != nil {
		return err
	}

	switch a.Type {
	case AssertMissing:
		if found {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("no %s %d", a.Relation, a.ID), Actual: "row exists"}
		}
		return nil
	case AssertRow:
		if !found {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s %d", a.Relation, a.ID), Actual: "no row"}
		}
		return assertRow(s, e, a)
	case AssertChildren:
		if !found {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s %d", a.Relation, a.ID), Actual: "no row"}
		}
		if s.Kind != schema.KindCollection {
			return fmt.Errorf("%s is not a collection", a.Relation)
		}
		children := s.Children(e)
		if int64(len(children)) != *a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d children", *a.Count), Actual: fmt.Sprint(len(children))}
		}
		for _, c := range children {
			if c.ParentID() != a.ID {
				return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("parent id %d", a.ID), Actual: fmt.Sprint(c.ParentID())}
			}
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertRow(s *schema.Schema, e schema.Entity, a Assertion) error {
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		col, ok := s.Column(schema.Sanitize(k))
		if !ok {
			return fmt.Errorf("%s has no column %q", a.Relation, k)
		}
		want, err := primitiveOf(a.Expect[k])
		if err != nil {
			return fmt.Errorf("column %s: %w", k, err)
		}
		got, ok := col.Extract(e)
		if !ok {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s = %v", k, a.Expect[k]), Actual: "unreadable"}
		}
		if !samePrimitive(want, got) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s = %v", k, describe(want)),
				Actual:   describe(got),
			}
		}
	}
	return nil
}

// samePrimitive compares numbers by value across Integer and Real, and
// everything else by kind and content.
func samePrimitive(a, b value.Primitive) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && math.Abs(x-y) < 1e-9
	}
	return describe(a) == describe(b)
}

func number(p value.Primitive) (float64, bool) {
	switch v := p.(type) {
	case value.Integer:
		return float64(v), true
	case value.Real:
		return float64(v), true
	}
	return 0, false
}

func describe(p value.Primitive) string {
	switch v := p.(type) {
	case value.Blob:
		return string(v)
	case value.Text:
		return fmt.Sprintf("%q", string(v))
	case value.Null:
		return "NULL"
	default:
		return fmt.Sprint(value.Driver(p))
	}
}
