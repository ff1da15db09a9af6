// Package allocator implements the concurrent index allocator of
// spec.md §4.3: two atomic bump counters, reserved and capacity,
// coordinated with internal/slab so that exactly one goroutine
// initializes each buffer.
//
// reserved and capacity are tracked internally as uint64 regardless of
// the caller's chosen index width I. This is a deliberate widening
// (see DESIGN.md, Open Question 3): Go generics cannot fuse an atomic
// add onto an arbitrary-width integer type parameter, and widening
// lets OutOfIndices be detected by a direct bound check against I's
// maximum representable value instead of relying on a same-width
// fetch-and-add wrap, which is a strictly stronger implementation of
// the same contract.
package allocator

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"braces.dev/errtrace"
	"golang.org/x/sys/cpu"

	"github.com/ruoso/poc-inside-out-objects/internal/slab"
	"github.com/ruoso/poc-inside-out-objects/internal/slabindex"
	"github.com/ruoso/poc-inside-out-objects/internal/telemetry"
	"github.com/ruoso/poc-inside-out-objects/ioerr"
)

// Allocator drives the bump-and-publish protocol over a slab.Store[T].
//
// reserved and capacity are the two counters every Acquire call touches,
// reserved on every call and capacity on every buffer-publishing call; a
// cpu.CacheLinePad between them keeps a goroutine hammering reserved
// from invalidating another's cached line of capacity, the same
// separation the teacher library hand-rolls with byte-array padding
// fields (see e.g. xsync's mpmcqueue.go hpad/tpad), done here with
// golang.org/x/sys/cpu's portable cache-line constant instead.
type Allocator[T any] struct {
	order    uint8
	maxIndex uint64 // largest representable flat index (I's max value)

	reserved atomic.Uint64
	_        cpu.CacheLinePad
	capacity atomic.Uint64
	_        cpu.CacheLinePad

	store *slab.Store[T]
	tel   *telemetry.Telemetry
}

// New constructs an Allocator over store, bounded by maxIndex (the
// largest flat index that may ever be handed out, i.e. the maximum
// value representable by the caller's chosen index type).
func New[T any](order uint8, maxIndex uint64, store *slab.Store[T], tel *telemetry.Telemetry) *Allocator[T] {
	return &Allocator[T]{
		order:    order,
		maxIndex: maxIndex,
		store:    store,
		tel:      tel,
	}
}

// Reserved returns the current value of the reserved counter.
func (a *Allocator[T]) Reserved() uint64 {
	return a.reserved.Load()
}

// Capacity returns the current value of the capacity counter.
func (a *Allocator[T]) Capacity() uint64 {
	return a.capacity.Load()
}

// Acquire hands out the next flat index, allocating a buffer if this
// caller is the one that reserved the first index of a new buffer.
// Implements spec.md §4.3 steps 1-4.
//
// An exhausted index space is unconditionally fatal: spec.md §4.3/§4.6
// classes OutOfIndices as "fatal, non-recoverable," distinct from
// AllocatorFailure's "fatal by default" (which WithPanicOnAllocatorFailure
// may relax). Acquire logs the condition and panics rather than
// returning an error a caller could be tempted to retry against an
// index space that will never free up on its own.
func (a *Allocator[T]) Acquire() (data []T, refs []atomic.Int32, idx uint64, err error) {
	i := a.reserved.Add(1) - 1
	if i > a.maxIndex {
		werr := errtrace.Wrap(ioerr.ErrOutOfIndices)
		if a.tel != nil {
			a.tel.Log.Error("index space exhausted", "reserved", i, "max_index", a.maxIndex)
		}
		panic(werr)
	}

	superIdx, _ := slabindex.Split(i, a.order)
	bufSize := slabindex.BufferSize(a.order)

	for {
		c := a.capacity.Load()
		switch {
		case i == c:
			// This caller reserved the first index of a fresh buffer
			// and is responsible for publishing it.
			var perr error
			data, refs, perr = a.store.PublishBuffer(superIdx)
			if perr != nil {
				return nil, nil, 0, errtrace.Wrap(fmt.Errorf("%w: %w", ioerr.ErrAllocatorFailure, perr))
			}
			if a.tel != nil {
				a.tel.BufferAllocated()
			}
			a.capacity.Add(bufSize)
			return data, refs, i, nil
		case i < c:
			data = a.store.DataBuffer(superIdx)
			refs = a.store.RefBuffer(superIdx)
			return data, refs, i, nil
		default:
			// i > c: some other goroutine is mid-allocation for this
			// or a prior buffer. The buffer may already be published
			// even though capacity hasn't caught up yet (PublishBuffer
			// happens before the capacity.Add above), so check that
			// directly instead of busy-waiting on the counter.
			if a.store.Published(superIdx) {
				data = a.store.DataBuffer(superIdx)
				refs = a.store.RefBuffer(superIdx)
				return data, refs, i, nil
			}
			if a.store.Failed(superIdx) {
				return nil, nil, 0, errtrace.Wrap(ioerr.ErrAllocatorFailure)
			}
			runtime.Gosched()
		}
	}
}

// Locate returns the data and refcount buffers backing an already-
// reserved index idx. Used when a slot is recycled from the free pool,
// where the buffer is guaranteed to be published already.
func (a *Allocator[T]) Locate(idx uint64) (data []T, refs []atomic.Int32) {
	superIdx, _ := slabindex.Split(idx, a.order)
	return a.store.DataBuffer(superIdx), a.store.RefBuffer(superIdx)
}

// BufferOrder returns the configured buffer order.
func (a *Allocator[T]) BufferOrder() uint8 {
	return a.order
}

// Stats returns a snapshot of the underlying slab.Store's buffer usage.
func (a *Allocator[T]) Stats() slab.Stats {
	return a.store.Stats()
}
