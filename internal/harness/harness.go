package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/roach88/relmap/internal/queryir"
	"github.com/roach88/relmap/internal/registry"
	"github.com/roach88/relmap/internal/schema"
	"github.com/roach88/relmap/internal/store"
	"github.com/roach88/relmap/internal/testutil"
	"github.com/roach88/relmap/internal/value"
)

// ErrUnknownRef is returned for steps that use a ref no earlier step bound.
var ErrUnknownRef = errors.New("unknown ref")

// ErrUnknownType is returned for relation names no definition maps to.
var ErrUnknownType = errors.New("unknown type")

// Harness executes the steps of one scenario.
type Harness struct {
	reg    *registry.Registry
	types  map[string]reflect.Type
	refs   map[string]schema.Entity
	seq    *testutil.Sequence
	logger *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger handed to the store and registry.
// Default: records are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes scenario in a fresh in-memory SQLite database with defs
// registered.
//
// Failed expectations and assertions are reported in the Result. The
// error is reserved for scenarios that cannot run: definitions that do not
// register, unknown relation names or refs, unknown columns in set.
func Run(ctx context.Context, scenario *Scenario, defs []schema.Definition, opts ...Option) (*Result, error) {
	h := newHarness(opts)

	st, err := testutil.MemorySQLite(store.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	return h.run(ctx, st, scenario, defs)
}

// RunOn executes scenario against st. Every registered relation is dropped
// and recreated first.
func RunOn(ctx context.Context, st store.Store, scenario *Scenario, defs []schema.Definition, opts ...Option) (*Result, error) {
	return newHarness(opts).run(ctx, st, scenario, defs)
}

func newHarness(opts []Option) *Harness {
	h := &Harness{
		types:  make(map[string]reflect.Type),
		refs:   make(map[string]schema.Entity),
		seq:    testutil.NewSequence(),
		logger: testutil.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Harness) run(ctx context.Context, st store.Store, scenario *Scenario, defs []schema.Definition) (*Result, error) {
	reg, err := registry.New(st, defs, registry.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to register types: %w", err)
	}
	if err := reg.Recreate(ctx); err != nil {
		return nil, fmt.Errorf("failed to create relations: %w", err)
	}
	h.reg = reg
	for _, t := range reg.Types() {
		tbl, _ := reg.Table(t)
		h.types[tbl.Relation()] = t
		h.types[t.Name()] = t
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		ev, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
		result.AddTrace(ev)
		for _, msg := range checkExpect(step.Expect, ev) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}

	for _, err := range h.evaluateAssertions(ctx, scenario.Assertions) {
		result.AddError(err.Error())
	}
	return result, nil
}

func (h *Harness) typeOf(name string) (reflect.Type, *schema.Schema, error) {
	t, ok := h.types[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	tbl, _ := h.reg.Table(t)
	return t, tbl.Schema(), nil
}

func (h *Harness) ref(name string) (schema.Entity, *schema.Schema, error) {
	e, ok := h.refs[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownRef, name)
	}
	tbl, _ := h.reg.Table(reflect.TypeOf(e).Elem())
	return e, tbl.Schema(), nil
}

// execute runs one step. Operation failures are recorded in the event;
// only malformed steps return an error.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	ev := TraceEvent{Seq: h.seq.Next(), Op: step.Op, Type: step.Type, Ref: step.Ref}
	var opErr error

	switch step.Op {
	case OpSave:
		_, s, err := h.typeOf(step.Type)
		if err != nil {
			return ev, err
		}
		e := s.New()
		if err := apply(s, e, step.Set); err != nil {
			return ev, err
		}
		target := e
		if step.Parent != "" {
			parent, ps, err := h.ref(step.Parent)
			if err != nil {
				return ev, err
			}
			if ps.Kind != schema.KindCollection || ps.Child != s.Type {
				return ev, fmt.Errorf("%s is not a collection of %s", step.Parent, step.Type)
			}
			ps.Adopt(parent, append(ps.Children(parent), e))
			target = parent
		}
		var ok bool
		ok, opErr = h.reg.Save(ctx, target)
		ev.OK, ev.ID = ptr(ok), e.ID()
		if step.Ref != "" {
			h.refs[step.Ref] = e
		}

	case OpUpdate:
		e, s, err := h.ref(step.Ref)
		if err != nil {
			return ev, err
		}
		if err := apply(s, e, step.Set); err != nil {
			return ev, err
		}
		var ok bool
		ok, opErr = h.reg.Save(ctx, e)
		ev.OK, ev.ID = ptr(ok), e.ID()

	case OpDelete:
		e, _, err := h.ref(step.Ref)
		if err != nil {
			return ev, err
		}
		ev.ID = e.ID()
		var ok bool
		ok, opErr = h.reg.Delete(ctx, e)
		ev.OK = ptr(ok)

	case OpGet:
		t, _, err := h.typeOf(step.Type)
		if err != nil {
			return ev, err
		}
		var (
			e     schema.Entity
			found bool
		)
		e, found, opErr = h.reg.Get(ctx, t, step.ID)
		ev.Found, ev.ID = ptr(found), step.ID
		if found && step.Ref != "" {
			h.refs[step.Ref] = e
		}

	case OpWhere:
		t, _, err := h.typeOf(step.Type)
		if err != nil {
			return ev, err
		}
		var es []schema.Entity
		es, opErr = h.reg.GetWhere(ctx, t, predicate(step.Where, step.Any))
		ids := make([]int64, 0, len(es))
		for _, e := range es {
			ids = append(ids, e.ID())
		}
		ev.IDs, ev.Count = ids, ptr(int64(len(es)))

	case OpCount:
		t, _, err := h.typeOf(step.Type)
		if err != nil {
			return ev, err
		}
		var n int64
		n, opErr = h.reg.Count(ctx, t)
		ev.Count = ptr(n)

	default:
		return ev, fmt.Errorf("unknown op %q", step.Op)
	}

	if opErr != nil {
		ev.Error = opErr.Error()
		h.logger.Debug("step failed", "seq", ev.Seq, "op", step.Op, "error", opErr)
	}
	return ev, nil
}

// apply injects set into e, column by column in name order.
func apply(s *schema.Schema, e schema.Entity, set map[string]any) error {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		col, ok := s.Column(schema.Sanitize(k))
		if !ok {
			return fmt.Errorf("%s has no column %q", s.Relation, k)
		}
		if col.Name() == schema.IDColumn || col.Name() == schema.ParentIDColumn {
			return fmt.Errorf("column %s is managed by relmap", col.Name())
		}
		p, err := primitiveOf(set[k])
		if err != nil {
			return fmt.Errorf("column %s: %w", k, err)
		}
		if !col.Inject(e, p, true) {
			return fmt.Errorf("column %s: cannot store %v", k, set[k])
		}
	}
	return nil
}

// primitiveOf converts a YAML scalar or collection to a primitive.
// Sequences and mappings become JSON blobs.
func primitiveOf(v any) (value.Primitive, error) {
	switch x := v.(type) {
	case nil:
		return value.Null{}, nil
	case string:
		return value.Text(x), nil
	case bool:
		if x {
			return value.Integer(1), nil
		}
		return value.Integer(0), nil
	case int:
		return value.Integer(x), nil
	case int64:
		return value.Integer(x), nil
	case uint64:
		return value.Integer(int64(x)), nil
	case float64:
		return value.Real(x), nil
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return value.Blob(data), nil
	}
}

func predicate(conds []Condition, or bool) queryir.Predicate {
	terms := make([]queryir.Comparison, 0, len(conds))
	for _, c := range conds {
		terms = append(terms, queryir.Comparison{
			Column: schema.Sanitize(c.Column),
			Op:     queryir.Op(c.Op),
			Value:  c.Value,
		})
	}
	switch {
	case or:
		return queryir.Or(terms...)
	case len(terms) == 1:
		return terms[0]
	default:
		return queryir.And(terms...)
	}
}
