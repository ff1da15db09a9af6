package entity

// Index is the constraint on a Storage's flat-index type I: any
// unsigned integer type. Its maximum representable value bounds how
// many slots a Storage can ever address.
//
// Recreated here rather than taken as a dependency on
// golang.org/x/exp/constraints, the same call xsync/mapof.go makes for
// its own IntegerConstraint.
type Index interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Refcount is the constraint on a Storage's refcount type R: any
// signed or unsigned integer type, matching spec.md §6's "small
// signed/unsigned integer" guidance.
type Refcount interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// maxOf returns the largest value representable by an Index type,
// using the same bitwise-complement trick as xsync's hashing helpers
// use for widening: for any unsigned type, ^T(0) is the all-ones
// pattern, which is exactly the type's maximum value.
func maxOf[N Index]() uint64 {
	var z N
	z = ^z
	return uint64(z)
}
