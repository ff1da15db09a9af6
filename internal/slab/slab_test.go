package slab_test

import (
	"errors"
	"testing"

	"github.com/ruoso/poc-inside-out-objects/internal/slab"
)

func TestPublishThenRead(t *testing.T) {
	s := slab.New[int](2, 4, nil, nil) // buffer size 4, 4 superbuffer slots

	if s.Published(0) {
		t.Fatal("fresh store reports buffer 0 as published")
	}

	data, refs, err := s.PublishBuffer(0)
	if err != nil {
		t.Fatalf("PublishBuffer: %v", err)
	}
	if len(data) != 4 || len(refs) != 4 {
		t.Fatalf("got buffer sizes (%d, %d), want (4, 4)", len(data), len(refs))
	}
	if !s.Published(0) {
		t.Fatal("Published(0) false after PublishBuffer(0)")
	}

	data[1] = 42
	refs[1].Store(1)

	got := s.DataBuffer(0)
	if got[1] != 42 {
		t.Errorf("DataBuffer(0)[1] = %d, want 42", got[1])
	}
	if v := s.RefBuffer(0)[1].Load(); v != 1 {
		t.Errorf("RefBuffer(0)[1] = %d, want 1", v)
	}
}

func TestUnpublishedBuffersAreNil(t *testing.T) {
	s := slab.New[string](1, 2, nil, nil)
	if s.DataBuffer(1) != nil {
		t.Error("DataBuffer on unpublished superIdx should be nil")
	}
	if s.RefBuffer(1) != nil {
		t.Error("RefBuffer on unpublished superIdx should be nil")
	}
}

func TestPublishBufferAllocatorFailure(t *testing.T) {
	boom := errors.New("boom")
	s := slab.New[int](1, 1, func(size uint64) ([]int, error) {
		return nil, boom
	}, nil)

	_, _, err := s.PublishBuffer(0)
	if !errors.Is(err, boom) {
		t.Fatalf("PublishBuffer error = %v, want %v", err, boom)
	}
	if !s.Failed(0) {
		t.Error("Failed(0) should be true after allocator failure")
	}
	if s.Published(0) {
		t.Error("Published(0) should remain false after allocator failure")
	}
}

func TestRefcountBufferIsIndependentPerSuperIdx(t *testing.T) {
	s := slab.New[int](1, 2, nil, nil)
	_, refsA, _ := s.PublishBuffer(0)
	_, refsB, _ := s.PublishBuffer(1)

	refsA[0].Store(5)
	if v := refsB[0].Load(); v != 0 {
		t.Errorf("refsB[0] = %d, want 0 (buffers must not alias)", v)
	}
}
