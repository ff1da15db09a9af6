// Package freepool implements the per-goroutine free list with global
// spill of spec.md §4.4. Go has no thread_local primitive a library
// can hook into, so affinity is approximated exactly the way the
// teacher library approximates it for its own striped Counter
// (xsync/counter.go's ptokenPool): a sync.Pool hands out a token for
// the duration of one call, and sync.Pool's own preference for
// returning the item most recently Put on the current P gives good
// affinity in the common case without ever risking a data race when
// it doesn't hold.
package freepool

import (
	"sync"

	"github.com/ruoso/poc-inside-out-objects/internal/queue"
	"github.com/ruoso/poc-inside-out-objects/internal/telemetry"
)

// fifo is a single-owner FIFO of freed flat indices. It is never
// accessed concurrently: exclusive access is guaranteed by the
// borrow/release protocol in Pool, the same guarantee a ptoken gives
// xsync's Counter.
type fifo struct {
	buf  []uint64
	head int
}

func (f *fifo) push(v uint64) {
	f.buf = append(f.buf, v)
}

func (f *fifo) pop() (uint64, bool) {
	if f.head >= len(f.buf) {
		return 0, false
	}
	v := f.buf[f.head]
	f.head++
	if f.head == len(f.buf) {
		f.buf = f.buf[:0]
		f.head = 0
	}
	return v, true
}

func (f *fifo) len() int {
	return len(f.buf) - f.head
}

// token wraps the fifo a single borrower owns for the duration of one
// Pool method call.
type token struct {
	f *fifo
}

// Pool implements the per-goroutine free list plus global spill queue.
// The zero value is not usable; construct with New.
type Pool struct {
	global *queue.Queue[*fifo]
	tokens sync.Pool
	tel    *telemetry.Telemetry
}

// New returns an empty Pool.
func New(tel *telemetry.Telemetry) *Pool {
	return &Pool{
		global: queue.New[*fifo](),
		tel:    tel,
	}
}

func (p *Pool) borrow() *token {
	if t, ok := p.tokens.Get().(*token); ok {
		return t
	}
	return &token{f: &fifo{}}
}

func (p *Pool) release(t *token) {
	p.tokens.Put(t)
}

// Push records that idx's refcount dropped to zero, making it
// available for reuse by whichever goroutine next calls Pop while
// holding the same local FIFO (see package doc for the affinity
// caveat).
func (p *Pool) Push(idx uint64) {
	t := p.borrow()
	t.f.push(idx)
	p.release(t)
}

// Pop returns a previously-freed index, preferring the local FIFO and
// falling back to adopting one spilled FIFO from the global pool.
// ok is false only when both are empty.
func (p *Pool) Pop() (idx uint64, ok bool) {
	t := p.borrow()
	defer p.release(t)

	if v, found := t.f.pop(); found {
		return v, true
	}
	if spilled, found := p.global.TryPop(); found {
		if p.tel != nil {
			p.tel.PoolAdopted()
		}
		t.f = spilled
		if v, found2 := t.f.pop(); found2 {
			return v, true
		}
	}
	return 0, false
}

// Spill moves the calling goroutine's local FIFO to the global pool
// and returns the number of indices moved (0 if the local FIFO was
// empty). A fresh, empty FIFO is left in place of the spilled one.
//
// Go cannot run this automatically "on thread exit" the way spec.md
// §4.4 allows — there is no such hook for goroutines — so this
// explicit call is the only spill path in this implementation.
func (p *Pool) Spill() int {
	t := p.borrow()
	defer p.release(t)

	n := t.f.len()
	if n == 0 {
		return 0
	}
	old := t.f
	t.f = &fifo{}
	p.global.Push(old)
	if p.tel != nil {
		p.tel.PoolSpilled()
	}
	return n
}
