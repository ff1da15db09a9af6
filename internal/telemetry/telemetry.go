// Package telemetry collects the coarse, racy-tolerant counters and
// structured log handler a Storage exposes for observability. Per
// spec.md §9, these counters are not strongly ordered with allocation;
// they exist for dashboards and tests that quiesce all goroutines
// first, not for synchronization.
package telemetry

import (
	"io"
	"log/slog"
	"sync/atomic"
)

// Counters bundles the monotonically increasing event counts this
// module tracks, grounded on xsync/map.go's totalGrowths/totalShrinks
// fields, widened here because there is more than a pair to track.
type Counters struct {
	BuffersAllocated atomic.Uint64
	EntitiesMade     atomic.Uint64
	EntitiesFreed    atomic.Uint64
	PoolSpills       atomic.Uint64
	PoolAdopts       atomic.Uint64
}

// Telemetry pairs a logger with a Counters bundle. The zero value is
// not usable; construct with New.
type Telemetry struct {
	Log      *slog.Logger
	Counters Counters
}

// New returns a Telemetry that discards all log output unless log is
// non-nil, matching hivekit's discard-by-default logger.Init pattern.
func New(log *slog.Logger) *Telemetry {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Telemetry{Log: log}
}

// BufferAllocated records that a new buffer was published.
func (t *Telemetry) BufferAllocated() {
	t.Counters.BuffersAllocated.Add(1)
}

// EntityMade records that a handle with refcount 1 was produced.
func (t *Telemetry) EntityMade() {
	t.Counters.EntitiesMade.Add(1)
}

// EntityFreed records that a slot's refcount dropped to zero.
func (t *Telemetry) EntityFreed() {
	t.Counters.EntitiesFreed.Add(1)
}

// PoolSpilled records a local free pool being pushed to the global queue.
func (t *Telemetry) PoolSpilled() {
	t.Counters.PoolSpills.Add(1)
}

// PoolAdopted records a spilled FIFO being adopted as a local pool.
func (t *Telemetry) PoolAdopted() {
	t.Counters.PoolAdopts.Add(1)
}
