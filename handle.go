package entity

import (
	"sync/atomic"

	"braces.dev/errtrace"

	"github.com/ruoso/poc-inside-out-objects/internal/freepool"
	"github.com/ruoso/poc-inside-out-objects/internal/telemetry"
	"github.com/ruoso/poc-inside-out-objects/ioerr"
)

// Handle identifies one slot in a Storage[T, I, R] and keeps it alive.
// It is the only legitimate way to name an entity: copying a Handle's
// fields directly (plain Go assignment) produces a second owner
// without incrementing the refcount, which is a misuse trap documented
// here rather than guarded at runtime — see Clone and Move.
//
// A Handle's zero value is "empty": Value returns T's zero value and
// Close is a safe no-op. (A handle emptied by Move or Close keeps its
// Storage's debug setting, so its Value panics under
// WithStrictMisuseChecks.)
type Handle[T any] struct {
	storage *storageID
	pool    *freepool.Pool
	tel     *telemetry.Telemetry

	ptr *T
	ref *atomic.Int32
	idx uint64

	debug       bool
	maxRefcount int32
}

// Clone is the copy-construction analogue: it increments the slot's
// refcount and returns an independent Handle[T] naming the same slot.
// Calling Clone on an empty handle returns another empty handle.
func (h Handle[T]) Clone() Handle[T] {
	if h.ref == nil {
		return h
	}
	if h.debug {
		if v := h.ref.Load(); v >= h.maxRefcount {
			panic(errtrace.Wrap(ioerr.ErrMisuse))
		}
	}
	h.ref.Add(1)
	return h
}

// Close is the destructor analogue: it decrements the slot's refcount,
// and if that was the last reference, pushes the slot's index onto the
// calling goroutine's free pool for reuse. It never runs any
// destructor-like logic on the stored T (spec.md §9's Open Question 1:
// T is treated as a plain value). Close is safe to call on an empty
// handle (a no-op) but must not be called twice on the same live
// Handle value — use Move, not a second Close, to hand off ownership.
func (h *Handle[T]) Close() {
	if h.ref == nil {
		return
	}
	if h.ref.Add(-1) == 0 {
		if h.tel != nil {
			h.tel.EntityFreed()
		}
		h.pool.Push(h.idx)
	}
	h.ref = nil
	h.ptr = nil
}

// Move is the move-construction analogue: it transfers ownership into
// the returned Handle[T] without touching the refcount and marks the
// receiver empty, so the receiver's eventual Close becomes a no-op.
func (h *Handle[T]) Move() Handle[T] {
	moved := *h
	h.storage = nil
	h.pool = nil
	h.tel = nil
	h.ptr = nil
	h.ref = nil
	return moved
}

// Value dereferences the handle, returning a read-only copy of the
// stored T. Dereferencing an empty handle is a MisuseAssertion: in
// debug mode (WithStrictMisuseChecks) it panics; otherwise it
// returns T's zero value, matching spec.md §4.6's "implementations
// should assert" guidance with a fallback that never reads
// uninitialized memory.
func (h Handle[T]) Value() T {
	if h.ptr == nil {
		if h.debug {
			panic(errtrace.Wrap(ioerr.ErrMisuse))
		}
		var zero T
		return zero
	}
	return *h.ptr
}

// Empty reports whether this handle is moved-from or was never
// constructed (its zero value).
func (h Handle[T]) Empty() bool {
	return h.ptr == nil
}

// Equal reports whether h and other name the same slot in the same
// Storage. Handles from different Storage instances are never equal,
// even if their cached pointers happen to collide, resolving spec.md
// §9's Open Question 2 in favor of a defined cross-storage comparison.
// Comparing handles from different storages is itself a MisuseAssertion:
// in debug mode (WithStrictMisuseChecks) it panics instead of
// silently returning false.
func (h Handle[T]) Equal(other Handle[T]) bool {
	if h.storage != other.storage {
		if h.debug {
			panic(errtrace.Wrap(ioerr.ErrMisuse))
		}
		return false
	}
	return h.ptr == other.ptr
}
