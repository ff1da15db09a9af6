package entity

import (
	"fmt"
	"sync/atomic"

	"braces.dev/errtrace"

	"github.com/ruoso/poc-inside-out-objects/internal/allocator"
	"github.com/ruoso/poc-inside-out-objects/internal/freepool"
	"github.com/ruoso/poc-inside-out-objects/internal/slab"
	"github.com/ruoso/poc-inside-out-objects/internal/slabindex"
	"github.com/ruoso/poc-inside-out-objects/internal/telemetry"
	"github.com/ruoso/poc-inside-out-objects/ioerr"
)

// maxSuperCapacity bounds how many superbuffer table entries New will
// preallocate. Without this, a Storage[T, uint64, R] instance with a
// small buffer order would ask for a superbuffer table covering the
// entire 64-bit index space, which no process can actually back.
// Callers that need more addressable slots should raise order instead.
const maxSuperCapacity = 1 << 24

// Storage is a reference-counted slab allocator for values of T,
// addressed by Handle[T] rather than by pointer. T's index space is
// bounded by I's maximum representable value; refcounts are tracked
// internally at 32 bits regardless of R, which exists to document
// (and, with WithStrictMisuseChecks, enforce) the application's
// expected sharing factor.
//
// A Storage must not be copied after first use, matching every
// concurrent type in the teacher library's own convention.
type Storage[T any, I Index, R Refcount] struct {
	id *storageID

	cfg         Config
	maxRefcount int32

	alloc *allocator.Allocator[T]
	pool  *freepool.Pool
	tel   *telemetry.Telemetry
}

// storageID gives each Storage instance a unique identity for
// Handle.Equal to compare, resolving spec.md §9's open question on
// cross-storage equality in favor of "always false" rather than
// undefined behavior. It holds one byte because distinct allocations of
// a zero-size type may share an address, which would make every
// Storage's identity compare equal.
type storageID struct{ _ byte }

// New constructs a Storage for entity type T, with slots addressed by
// index type I and refcounts tracked at width R, using buffers of
// 1<<order slots each.
func New[T any, I Index, R Refcount](order uint8, opts ...Option) (*Storage[T, I, R], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	maxIndex := maxOf[I]()
	if order > 62 {
		return nil, errtrace.Wrap(fmt.Errorf("%w: buffer order %d is too large", ioerr.ErrMisuse, order))
	}
	bufSize := slabindex.BufferSize(order)
	if bufSize-1 > maxIndex {
		return nil, errtrace.Wrap(fmt.Errorf("%w: buffer order %d exceeds index type's range", ioerr.ErrMisuse, order))
	}
	superCap := slabindex.SuperCapacity(maxIndex, order)
	if superCap > maxSuperCapacity {
		return nil, errtrace.Wrap(fmt.Errorf(
			"%w: index type and buffer order would need a %d-entry superbuffer table (max %d); choose a larger order or a narrower index type",
			ioerr.ErrMisuse, superCap, maxSuperCapacity))
	}

	tel := telemetry.New(cfg.logger)

	var dataAlloc slab.DataAllocator[T]
	if cfg.dataAlloc != nil {
		da, ok := cfg.dataAlloc.(slab.DataAllocator[T])
		if !ok {
			return nil, errtrace.Wrap(fmt.Errorf("%w: WithDataAllocator's type does not match Storage's entity type", ioerr.ErrMisuse))
		}
		dataAlloc = da
	}
	var refAlloc slab.RefAllocator
	if cfg.refAlloc != nil {
		ra, ok := cfg.refAlloc.(slab.RefAllocator)
		if !ok {
			return nil, errtrace.Wrap(fmt.Errorf("%w: WithRefAllocator's type does not match the expected signature", ioerr.ErrMisuse))
		}
		refAlloc = ra
	}
	store := slab.New[T](order, superCap, dataAlloc, refAlloc)
	alloc := allocator.New[T](order, maxIndex, store, tel)
	pool := freepool.New(tel)

	return &Storage[T, I, R]{
		id:          &storageID{},
		cfg:         cfg,
		maxRefcount: clampRefcount(refcountMax[R]()),
		alloc:       alloc,
		pool:        pool,
		tel:         tel,
	}, nil
}

// Reserved returns the current value of the monotonic reservation
// counter (spec.md §4.3's "reserved"), narrowed to I.
func (s *Storage[T, I, R]) Reserved() I {
	return I(s.alloc.Reserved())
}

// Capacity returns the current value of the monotonic buffer-backed
// capacity counter (spec.md §4.3's "capacity"), narrowed to I.
func (s *Storage[T, I, R]) Capacity() I {
	return I(s.alloc.Capacity())
}

// Stats returns a snapshot of the underlying slab store's buffer usage
// (buffers allocated, bytes resident), for callers that want to report
// it alongside their own metrics. internal/telemetry's own counters
// track allocation events as they happen; Stats gives the point-in-time
// totals those events imply.
func (s *Storage[T, I, R]) Stats() slab.Stats {
	return s.alloc.Stats()
}

// ReturnFreePoolToGlobal spills the calling goroutine's local free
// list into the global spill pool and returns the number of indices
// moved (0 if the local pool was empty). Idempotent on an empty pool.
func (s *Storage[T, I, R]) ReturnFreePoolToGlobal() int {
	return s.pool.Spill()
}

// acquireSlot obtains a slot address and flat index, preferring a
// previously-freed slot from the free pool (spec.md §4.3's
// make_entity protocol) and falling back to the bump allocator.
func (s *Storage[T, I, R]) acquireSlot() (data []T, refs []atomic.Int32, idx uint64, err error) {
	if freeIdx, ok := s.pool.Pop(); ok {
		data, refs = s.alloc.Locate(freeIdx)
		return data, refs, freeIdx, nil
	}
	return s.alloc.Acquire()
}

// construct places the value returned by build into a freshly acquired
// slot and returns a Handle[T] with refcount 1. If build fails, the
// slot is immediately returned to the free pool and the error is
// surfaced to the caller, per spec.md §4.6.
func (s *Storage[T, I, R]) construct(build func() (T, error)) (Handle[T], error) {
	// acquireSlot only ever returns ioerr.ErrAllocatorFailure here; an
	// exhausted index space panics unconditionally inside Acquire
	// itself (see internal/allocator), independent of this flag.
	data, refs, idx, err := s.acquireSlot()
	if err != nil {
		if s.cfg.panicOnAllocatorFailure {
			panic(err)
		}
		return Handle[T]{}, errtrace.Wrap(err)
	}

	_, bufIdx := slabindex.Split(idx, s.alloc.BufferOrder())
	v, cerr := build()
	if cerr != nil {
		s.pool.Push(idx)
		return Handle[T]{}, errtrace.Wrap(fmt.Errorf("%w: %w", ioerr.ErrConstructionFailure, cerr))
	}

	data[bufIdx] = v
	ref := &refs[bufIdx]
	ref.Store(1)
	if s.tel != nil {
		s.tel.EntityMade()
	}

	return Handle[T]{
		storage:     s.id,
		pool:        s.pool,
		tel:         s.tel,
		ptr:         &data[bufIdx],
		ref:         ref,
		idx:         idx,
		debug:       s.cfg.debug,
		maxRefcount: s.maxRefcount,
	}, nil
}

// MakeEntity default-constructs a T (its Go zero value) in a fresh
// slot and returns a Handle[T] with refcount 1.
func (s *Storage[T, I, R]) MakeEntity() (Handle[T], error) {
	return s.construct(func() (T, error) {
		var zero T
		return zero, nil
	})
}

// MakeEntityFrom copies v into a fresh slot and returns a Handle[T]
// with refcount 1.
func (s *Storage[T, I, R]) MakeEntityFrom(v T) (Handle[T], error) {
	return s.construct(func() (T, error) {
		return v, nil
	})
}
