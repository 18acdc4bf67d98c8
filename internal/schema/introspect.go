package schema

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/relmap/internal/value"
)

// TagName is the struct tag key for persisted fields.
const TagName = "relmap"

// Build computes the schema of def. It returns every structural problem
// found, joined; the schema is nil whenever err is not.
func Build(def Definition) (*Schema, error) {
	typeName := "<nil>"
	if def.Type != nil {
		typeName = def.Type.String()
	}
	b := &builder{
		root:     def.Type,
		typeName: typeName,
		names:    map[string]bool{strings.ToLower(IDColumn): true, strings.ToLower(ParentIDColumn): true},
		pending:  map[string][]pendingMember{},
		levels:   map[reflect.Type]bool{},
	}

	if def.Type == nil || !reflect.PointerTo(def.Type).Implements(entityType) {
		b.fail(ErrCodeNotEntity, "", "pointer type does not implement schema.Entity")
	}
	if def.Type == nil || def.Type.Kind() != reflect.Struct || def.New == nil {
		b.fail(ErrCodeNoConstructor, "", "no no-argument constructor; only struct types can be registered")
	}
	if def.Kind == KindCollection && (def.Child == nil || def.items == nil || def.replace == nil) {
		b.fail(ErrCodeNotEntity, "", "collection definition without child type; use schema.Collection")
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	relation := def.Name
	if relation == "" {
		relation = def.Type.Name()
	}
	relation = Sanitize(relation)
	if relation == "" {
		b.fail(ErrCodeEmptyName, "", fmt.Sprintf("relation name %q has no letters", def.Name))
	}

	b.columns = identityColumns()
	b.markLevels(def.Type)
	b.walk(def.Type, nil)
	b.finish()

	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	s := &Schema{
		Type:     def.Type,
		Relation: relation,
		Columns:  b.columns,
		Kind:     def.Kind,
		New:      def.New,
		items:    def.items,
		replace:  def.replace,
	}
	if def.Kind == KindCollection {
		s.Child = def.Child.Type
	}
	return s, nil
}

type pendingMember struct {
	member Member
	path   []int
}

type builder struct {
	root     reflect.Type
	typeName string
	columns  []Column
	names    map[string]bool
	errs     []error

	// pending holds accessors by logical name until their counterpart is
	// seen. Entries keep every occurrence so a third one can be reported.
	pending map[string][]pendingMember
	order   []string

	// levels are the struct types reachable through embedding; accessors
	// may only be declared on one of them.
	levels map[reflect.Type]bool
}

func (b *builder) fail(code SchemaErrorCode, column, msg string) {
	b.errs = append(b.errs, &SchemaError{Code: code, Type: b.typeName, Column: column, Message: msg})
}

// markLevels records t and every struct embedded by value below it.
func (b *builder) markLevels(t reflect.Type) {
	if b.levels[t] {
		return
	}
	b.levels[t] = true
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); embedded(f) {
			b.markLevels(f.Type)
		}
	}
}

// embedded reports whether f is an untagged struct embedded by value.
func embedded(f reflect.StructField) bool {
	_, tagged := f.Tag.Lookup(TagName)
	return f.Anonymous && !tagged && f.Type.Kind() == reflect.Struct
}

// walk visits the level t found at index path from the root: its own
// tagged fields, then its embedded structs, then its accessors.
func (b *builder) walk(t reflect.Type, path []int) {
	var nested []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if embedded(f) {
			nested = append(nested, f)
			continue
		}
		tag, ok := f.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		b.field(f, tag, append(slices.Clone(path), i))
	}

	for _, f := range nested {
		b.walk(f.Type, append(slices.Clone(path), f.Index...))
	}

	ptr := reflect.PointerTo(t)
	if !ptr.Implements(memberProviderType) {
		return
	}
	provider := reflect.New(t).Interface().(MemberProvider)
	for _, m := range provider.StorageMembers() {
		switch {
		case m.owner == t:
			b.accessor(m, path)
		case b.levels[m.owner] && reflect.PointerTo(m.owner).Implements(memberProviderType):
			// visited at its own level
		case b.levels[m.owner]:
			b.accessor(m, b.pathTo(m.owner))
		default:
			b.fail(ErrCodeUnknownOwner, m.name, fmt.Sprintf("accessor declared on %s, which is not embedded in %s", m.owner, b.root))
		}
	}
}

// pathTo returns the index path of the embedded level t.
func (b *builder) pathTo(t reflect.Type) []int {
	var search func(cur reflect.Type, path []int) ([]int, bool)
	search = func(cur reflect.Type, path []int) ([]int, bool) {
		if cur == t {
			return path, true
		}
		for i := 0; i < cur.NumField(); i++ {
			f := cur.Field(i)
			if !embedded(f) {
				continue
			}
			if p, ok := search(f.Type, append(slices.Clone(path), i)); ok {
				return p, true
			}
		}
		return nil, false
	}
	p, _ := search(b.root, nil)
	return p
}

func (b *builder) field(f reflect.StructField, tag string, path []int) {
	logical := tag
	if logical == "" {
		logical = f.Name
	}
	if !f.IsExported() {
		b.fail(ErrCodeUnexportedField, logical, fmt.Sprintf("field %s is tagged but unexported", f.Name))
		return
	}
	codec := value.For(f.Type)
	if !codec.Supported() {
		b.fail(ErrCodeUnsupportedType, logical, fmt.Sprintf("field %s has unsupported type %s", f.Name, f.Type))
		return
	}
	name, ok := b.claim(logical)
	if !ok {
		return
	}
	b.columns = append(b.columns, &fieldColumn{
		name:  name,
		owner: b.root,
		field: f.Name,
		path:  path,
		codec: codec,
	})
}

// accessor adds m to the pairing cache and builds a column once the pair
// is complete.
func (b *builder) accessor(m Member, path []int) {
	seen := b.pending[m.name]
	if len(seen) == 0 {
		b.order = append(b.order, m.name)
	}
	b.pending[m.name] = append(seen, pendingMember{member: m, path: path})

	switch len(b.pending[m.name]) {
	case 2:
		b.pair(m.name)
	case 3:
		b.fail(ErrCodeAmbiguousAccessor, m.name, "more than two accessors share this name")
	}
}

func (b *builder) pair(logical string) {
	first, second := b.pending[logical][0], b.pending[logical][1]
	get, set := first, second
	if get.member.setter {
		get, set = set, get
	}
	switch {
	case get.member.setter == set.member.setter:
		b.fail(ErrCodeAccessorMismatch, logical, fmt.Sprintf("need one getter and one setter, got %s and %s", first.member, second.member))
		return
	case get.member.owner != set.member.owner:
		b.fail(ErrCodeAccessorMismatch, logical, fmt.Sprintf("getter on %s, setter on %s", get.member.owner, set.member.owner))
		return
	case get.member.valueType != set.member.valueType:
		b.fail(ErrCodeAccessorMismatch, logical, fmt.Sprintf("getter returns %s, setter takes %s", get.member.valueType, set.member.valueType))
		return
	}
	codec := value.For(get.member.valueType)
	if !codec.Supported() {
		b.fail(ErrCodeUnsupportedType, logical, fmt.Sprintf("accessor type %s is unsupported", get.member.valueType))
		return
	}
	name, ok := b.claim(logical)
	if !ok {
		return
	}
	b.columns = append(b.columns, &accessorColumn{
		name:  name,
		owner: b.root,
		path:  get.path,
		codec: codec,
		get:   get.member.get,
		set:   set.member.set,
	})
}

// finish reports accessors still waiting for their counterpart.
func (b *builder) finish() {
	for _, logical := range b.order {
		if len(b.pending[logical]) == 1 {
			b.fail(ErrCodeUnpairedAccessor, logical, fmt.Sprintf("%s has no counterpart", b.pending[logical][0].member))
		}
	}
}

// claim sanitizes logical and reserves the resulting column name. Names
// are compared case-insensitively, as SQLite and MySQL compare identifiers.
func (b *builder) claim(logical string) (string, bool) {
	name := Sanitize(logical)
	if name == "" {
		b.fail(ErrCodeEmptyName, logical, "column name has no letters")
		return "", false
	}
	key := strings.ToLower(name)
	if b.names[key] {
		b.fail(ErrCodeDuplicateColumn, logical, fmt.Sprintf("column %s is already mapped", name))
		return "", false
	}
	b.names[key] = true
	return name, true
}
