// Package entity implements a reference-counted slab allocator for
// small, immutable values, addressed by compact handles rather than
// raw pointers.
//
// A Storage[T, I, R] is parameterised by the stored type T, an index
// width I bounding how many slots it can ever address, and a refcount
// width R. Client code calls MakeEntity/MakeEntityFrom/MakeEntityFields
// to place a value of T in a slot and receive a Handle[T]; Handle.Clone
// shares ownership, Handle.Close drops it, and Handle.Value dereferences
// it. When the last Handle naming a slot is closed, the slot becomes
// available for reuse.
//
// Storage never mutates a stored value in place and never relocates or
// compacts slots once placed; dereference always yields a read-only
// copy. Cyclic graphs built from handles that name each other are not
// collected and will leak, exactly as a manually reference-counted
// graph would in any language without a tracing collector.
package entity
