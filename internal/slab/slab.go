// Package slab implements the two-level slab store: parallel
// superbuffer tables of lazily-allocated data and refcount buffers,
// indexed by the split performed in internal/slabindex.
//
// Publication rule: PublishBuffer stores both table entries before the
// allocator advances its capacity counter; any reader that later
// observes a flat index backed by capacity may safely call DataBuffer
// and RefBuffer at the corresponding superbuffer index without further
// synchronization, because the fetch-and-add on capacity the allocator
// performs after this call synchronizes-with these stores.
package slab

import (
	"sync/atomic"
	"unsafe"
)

// DataAllocator produces a fresh buffer of size elements of T. The
// default, used when nil is passed to New, is a plain make([]T, size).
type DataAllocator[T any] func(size uint64) ([]T, error)

// RefAllocator produces a fresh, zero-valued refcount buffer of size
// cells. The default, used when nil is passed to New, is a plain
// make([]atomic.Int32, size).
type RefAllocator func(size uint64) ([]atomic.Int32, error)

// Store holds the two parallel superbuffer tables for entity type T.
// The refcount cells are tracked as atomic.Int32 regardless of the
// caller's chosen refcount width; entity.Storage uses that width only
// as the bound of its debug-mode overflow check.
type Store[T any] struct {
	order   uint8
	bufSize uint64

	data   []atomic.Pointer[[]T]
	refs   []atomic.Pointer[[]atomic.Int32]
	failed []atomic.Bool // set when PublishBuffer gave up on this superIdx

	allocData DataAllocator[T]
	allocRefs RefAllocator

	buffersPublished atomic.Uint64
}

// New allocates the (empty) superbuffer tables sized to hold
// superCap buffers of 1<<order slots each. Buffers themselves are not
// allocated until PublishBuffer is called for a given superbuffer
// index. A nil dataAlloc or refAlloc falls back to plain make().
func New[T any](order uint8, superCap uint64, dataAlloc DataAllocator[T], refAlloc RefAllocator) *Store[T] {
	if dataAlloc == nil {
		dataAlloc = func(size uint64) ([]T, error) {
			return make([]T, size), nil
		}
	}
	if refAlloc == nil {
		refAlloc = func(size uint64) ([]atomic.Int32, error) {
			return make([]atomic.Int32, size), nil
		}
	}
	return &Store[T]{
		order:     order,
		bufSize:   uint64(1) << order,
		data:      make([]atomic.Pointer[[]T], superCap),
		refs:      make([]atomic.Pointer[[]atomic.Int32], superCap),
		failed:    make([]atomic.Bool, superCap),
		allocData: dataAlloc,
		allocRefs: refAlloc,
	}
}

// BufferSize returns the number of slots in one buffer.
func (s *Store[T]) BufferSize() uint64 {
	return s.bufSize
}

// DataBuffer returns the data buffer at superIdx, or nil if it has not
// been published yet.
func (s *Store[T]) DataBuffer(superIdx uint64) []T {
	p := s.data[superIdx].Load()
	if p == nil {
		return nil
	}
	return *p
}

// RefBuffer returns the refcount buffer at superIdx, or nil if it has
// not been published yet.
func (s *Store[T]) RefBuffer(superIdx uint64) []atomic.Int32 {
	p := s.refs[superIdx].Load()
	if p == nil {
		return nil
	}
	return *p
}

// PublishBuffer allocates a fresh data buffer and a zero-initialized
// refcount buffer for superIdx and stores both pointers. Only the one
// caller that won the allocator's "i == capacity" race for this
// superbuffer index may call this; it is not safe to call twice for
// the same index. If either underlying allocator fails, no table entry
// is stored, the index is marked Failed so goroutines spinning on this
// superIdx can stop spinning, and the error is returned; there is no
// partial buffer.
func (s *Store[T]) PublishBuffer(superIdx uint64) (data []T, refs []atomic.Int32, err error) {
	data, err = s.allocData(s.bufSize)
	if err != nil {
		s.failed[superIdx].Store(true)
		return nil, nil, err
	}
	refs, err = s.allocRefs(s.bufSize)
	if err != nil {
		s.failed[superIdx].Store(true)
		return nil, nil, err
	}
	s.data[superIdx].Store(&data)
	s.refs[superIdx].Store(&refs)
	s.buffersPublished.Add(1)
	return data, refs, nil
}

// Stats is a point-in-time snapshot of a Store's resource usage, for
// internal/telemetry to report alongside its own counters.
type Stats struct {
	// BuffersAllocated is the number of data/refcount buffer pairs
	// published so far.
	BuffersAllocated uint64
	// BytesResident estimates the memory held by published buffers:
	// BuffersAllocated * bufSize * (sizeof(T) + sizeof(atomic.Int32)).
	// It does not account for T values that themselves hold pointers
	// to further heap memory.
	BytesResident uint64
}

// Stats returns a snapshot of this Store's current buffer usage.
func (s *Store[T]) Stats() Stats {
	n := s.buffersPublished.Load()
	var zero T
	elemSize := uint64(unsafe.Sizeof(zero))
	refSize := uint64(unsafe.Sizeof(atomic.Int32{}))
	return Stats{
		BuffersAllocated: n,
		BytesResident:    n * s.bufSize * (elemSize + refSize),
	}
}

// Published reports whether the buffer at superIdx has been published.
// Used by the allocator's spin loop; a nil load here never blocks.
func (s *Store[T]) Published(superIdx uint64) bool {
	return s.data[superIdx].Load() != nil
}

// Failed reports whether a prior PublishBuffer call for superIdx gave
// up after an allocator error. A goroutine spinning on this superIdx
// must stop and propagate the failure rather than wait forever for a
// buffer that will never arrive.
func (s *Store[T]) Failed(superIdx uint64) bool {
	return s.failed[superIdx].Load()
}

// SuperCapacity returns the number of entries in the superbuffer
// tables (not the number of published buffers).
func (s *Store[T]) SuperCapacity() uint64 {
	return uint64(len(s.data))
}
