// Package ioerr defines the sentinel errors returned across the
// storage, allocator, and free-pool layers.
package ioerr

import "errors"

var (
	// ErrOutOfIndices indicates the flat index space of a Storage has
	// been exhausted. Fatal: callers that observe it wrapped should
	// treat the Storage as unusable.
	ErrOutOfIndices = errors.New("entity: index space exhausted")

	// ErrAllocatorFailure indicates the configured data or refcount
	// buffer allocator failed to produce a new buffer.
	ErrAllocatorFailure = errors.New("entity: buffer allocator failed")

	// ErrConstructionFailure indicates a user-supplied constructor
	// returned an error while building T in place. The slot is
	// returned to the free pool before this error reaches the caller.
	ErrConstructionFailure = errors.New("entity: construction failed")

	// ErrMisuse indicates a debug-only contract violation: dereferencing
	// an empty handle, comparing handles across storages, or overflowing
	// the configured refcount width.
	ErrMisuse = errors.New("entity: misuse of handle API")
)
