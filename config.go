package entity

import (
	"log/slog"

	"github.com/ruoso/poc-inside-out-objects/internal/slab"
)

// Config holds the construction-time options of a Storage, validated
// once in New. Grounded on the functional-options constructor family
// xsync/mapof.go uses (NewTypedMapOf, NewIntegerMapOf) and the
// With...Option builders throughout hivekit.
type Config struct {
	logger                  *slog.Logger
	debug                   bool
	panicOnAllocatorFailure bool

	// dataAlloc and refAlloc hold a slab.DataAllocator[T]/slab.RefAllocator
	// set by WithDataAllocator/WithRefAllocator. They are stored as any
	// because Config is shared across every instantiation of Storage[T,
	// I, R] and cannot itself be generic over T; New type-asserts them
	// back to the concrete slab.DataAllocator[T] it needs.
	dataAlloc any
	refAlloc  any
}

// Option configures a Storage at construction time.
type Option func(*Config)

func defaultConfig() Config {
	return Config{}
}

// WithLogger routes a Storage's structured log output to l instead of
// discarding it.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.logger = l }
}

// WithStrictMisuseChecks enables the debug-only assertions spec.md §7
// classes as MisuseAssertion: dereferencing an empty handle, comparing
// handles across storages, and exceeding the configured refcount
// width all panic instead of silently returning a zero value or false.
// Off by default, matching the spec's "debug-only abort" framing.
func WithStrictMisuseChecks() Option {
	return func(c *Config) { c.debug = true }
}

// WithPanicOnAllocatorFailure restores spec.md §4.6's "fatal by
// default" framing for buffer allocation failures. Off by default: a
// library should not decide unilaterally that its caller's process
// must die, so MakeEntity* instead returns ioerr.ErrAllocatorFailure
// unless this option is set.
func WithPanicOnAllocatorFailure() Option {
	return func(c *Config) { c.panicOnAllocatorFailure = true }
}

// WithDataAllocator replaces a Storage[T, I, R]'s default make([]T, n)
// buffer allocator with alloc, per spec.md §6's data allocator
// configuration parameter. T must match the Storage's own entity type;
// New returns an error wrapping ioerr.ErrMisuse, and no Storage, if a
// mismatched T slips through.
func WithDataAllocator[T any](alloc slab.DataAllocator[T]) Option {
	return func(c *Config) { c.dataAlloc = alloc }
}

// WithRefAllocator replaces a Storage's default make([]atomic.Int32, n)
// refcount buffer allocator with alloc, per spec.md §6's refcount
// allocator configuration parameter. Refcount cells are tracked
// internally at 32 bits regardless of the Storage's R, so alloc's
// signature is not generic over R.
func WithRefAllocator(alloc slab.RefAllocator) Option {
	return func(c *Config) { c.refAlloc = alloc }
}
