// Package slabindex implements the pure, branch-free index arithmetic
// that splits a flat slot index into a (superbuffer, buffer) pair and
// joins them back. All other packages in this module work in terms of
// uint64 flat indices, widening and narrowing to the caller's chosen
// index type only at the entity package boundary.
package slabindex

// Split divides a flat index i into a superbuffer index and a buffer
// index, given that each buffer holds 1<<order slots.
func Split(i uint64, order uint8) (superIdx, bufIdx uint64) {
	return i >> order, i & (1<<order - 1)
}

// Join recombines a (superbuffer, buffer) pair produced by Split back
// into a flat index.
func Join(superIdx, bufIdx uint64, order uint8) uint64 {
	return (superIdx << order) | bufIdx
}

// BufferSize returns 1<<order, the number of slots per buffer.
func BufferSize(order uint8) uint64 {
	return 1 << order
}

// SuperCapacity returns the number of superbuffer slots needed to cover
// the full range [0, maxIndex] with buffers of 1<<order slots each.
func SuperCapacity(maxIndex uint64, order uint8) uint64 {
	bufSize := BufferSize(order)
	// maxIndex is the largest representable index, so the range has
	// maxIndex+1 slots; round up to a whole number of buffers.
	slots := maxIndex/bufSize + 1
	return slots
}
