// Package registry holds one persistence engine per registered type and
// adds cascading behaviour for collections.
//
// New takes every definition up front and returns a ready registry. Types
// whose schema cannot be built are left out and reported, joined, in the
// returned error; every other type stays usable. The element type of a
// collection is registered implicitly when it is not listed.
//
// Operations dispatch on the dynamic type of the entity (Save, Delete) or
// on an explicit reflect.Type (Get, GetAll, GetWhere, Count). For
// collection types:
//
//   - Get, GetAll and GetWhere load every child whose ParentID equals the
//     parent's ID and attach them to the parent;
//   - Save saves the parent first, stamps its ID on every child, then saves
//     the children; both steps must succeed;
//   - Delete deletes every child, then the parent; it succeeds only when
//     every child and the parent were deleted.
//
// Children go through the same dispatch, so a child type that is itself a
// collection cascades one level further.
//
// No operation is transactional. A failure part way through a cascade
// leaves the rows already written or removed in place.
package registry
