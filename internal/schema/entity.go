package schema

// InvalidID is the identity of an entity that has not been persisted yet,
// and the parent identity of an entity without a parent.
//
// Stores generate identities starting at 1, so the Go zero value of every
// entity is transient.
const InvalidID int64 = 0

// Reserved column names present in every schema.
const (
	IDColumn       = "ID"
	ParentIDColumn = "ParentID"
)

// Entity is the contract every persistable type satisfies through its
// pointer. Embed Record to get an implementation.
type Entity interface {
	// ID returns the identity assigned by the store, or InvalidID.
	ID() int64
	// SetID is called by the engine once, after the first successful insert.
	SetID(id int64)
	// ParentID returns the identity of the owning collection, or InvalidID.
	ParentID() int64
	// SetParentID is called by collection membership changes and by
	// cascading saves.
	SetParentID(id int64)
}

// Record is an embeddable Entity implementation.
type Record struct {
	id       int64
	parentID int64
}

// ID implements Entity.
func (r *Record) ID() int64 { return r.id }

// SetID implements Entity.
func (r *Record) SetID(id int64) { r.id = id }

// ParentID implements Entity.
func (r *Record) ParentID() int64 { return r.parentID }

// SetParentID implements Entity.
func (r *Record) SetParentID(id int64) { r.parentID = id }

// Transient reports whether e has not been persisted yet.
func Transient(e Entity) bool {
	return e.ID() == InvalidID
}
