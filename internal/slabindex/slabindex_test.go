package slabindex_test

import (
	"testing"

	"github.com/ruoso/poc-inside-out-objects/internal/slabindex"
)

func TestSplitJoinRoundTrip(t *testing.T) {
	const order = 4 // buffer size 16
	for i := uint64(0); i < 256; i++ {
		super, buf := slabindex.Split(i, order)
		got := slabindex.Join(super, buf, order)
		if got != i {
			t.Errorf("Join(Split(%d)) = %d, want %d", i, got, i)
		}
		if buf >= slabindex.BufferSize(order) {
			t.Errorf("Split(%d) buf index %d out of range", i, buf)
		}
	}
}

func TestSplitBufferBoundary(t *testing.T) {
	const order = 1 // buffer size 2
	cases := []struct {
		i, super, buf uint64
	}{
		{0, 0, 0},
		{1, 0, 1},
		{2, 1, 0},
		{3, 1, 1},
		{4, 2, 0},
	}
	for _, c := range cases {
		super, buf := slabindex.Split(c.i, order)
		if super != c.super || buf != c.buf {
			t.Errorf("Split(%d) = (%d, %d), want (%d, %d)", c.i, super, buf, c.super, c.buf)
		}
	}
}

func TestSuperCapacity(t *testing.T) {
	// maxIndex=3 (2 bits), order=1 (buffer size 2) -> 2 buffers needed.
	if got := slabindex.SuperCapacity(3, 1); got != 2 {
		t.Errorf("SuperCapacity(3, 1) = %d, want 2", got)
	}
	// maxIndex=255 (uint8 range), order=4 (buffer size 16) -> 16 buffers.
	if got := slabindex.SuperCapacity(255, 4); got != 16 {
		t.Errorf("SuperCapacity(255, 4) = %d, want 16", got)
	}
}
