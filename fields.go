package entity

// FieldConstructible is implemented by entity types that want to
// support MakeEntityFields, the Go substitute for C++'s brace-list
// positional construction (spec.md §6's "make_entity(fields...)").
// FromFields receives the arguments passed to MakeEntityFields in
// order and builds a T from them, or reports why it couldn't.
type FieldConstructible[T any] interface {
	FromFields(fields ...any) (T, error)
}

// MakeEntityFields constructs a T from a positional field list via
// T's FromFields method and places it in a fresh slot of s, returning
// a Handle[T] with refcount 1.
//
// This is a package-level function rather than a Storage method
// because Go methods cannot introduce additional type parameters: the
// FieldConstructible[T] constraint only needs to hold for the entity
// type actually being built, not for every Storage[T, I, R].
func MakeEntityFields[T FieldConstructible[T], I Index, R Refcount](s *Storage[T, I, R], fields ...any) (Handle[T], error) {
	return s.construct(func() (T, error) {
		var zero T
		return zero.FromFields(fields...)
	})
}
