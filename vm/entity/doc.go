// Package entity implements the runtime's object graph.
//
// Every runtime object embeds an Entity and participates in named, typed
// relationships instead of holding ad hoc pointers. Relationships are
// mirrored: when A's outgoing relationship R lists B, B's incoming
// relationship R lists A, and every Add or Remove updates both sides.
//
// # Lifecycle
//
// Lifetime is reference counting over relationship membership. When the last
// incoming reference to an entity is removed, the entity is marked (a
// tombstone) and its outgoing relationships are cleared, which may in turn
// leave its children unreferenced and mark them as well. Marked entities stay
// in their Repository until the Registry sweeps.
//
// There is no cycle detection. Entities that reference each other keep each
// other reachable forever, exactly as two mutually referencing collections
// would in the interpreter.
//
// # Faults
//
// Operations never panic or return errors. Unknown relationship names, nil
// targets and similar misuse are reported to the status log and the call
// becomes a no-op returning the receiver, so chains like
//
//	e.Declare("items", entity.OneToMany).Add("items", a).Add("items", b)
//
// remain safe to continue.
//
// # Thread Safety
//
// Nothing here is safe for concurrent use. The graph is owned by a single
// interpreter loop.
package entity
