package apu

import (
	"math/bits"
	"sync/atomic"
)

// RingBuffer is a fixed capacity single-producer single-consumer queue of
// audio samples. The emulation goroutine pushes, the audio device pulls.
// Push drops the sample when the buffer is full, Pop returns silence when it
// is empty.
type RingBuffer struct {
	buf  []float32
	mask uint32

	w atomic.Uint32
	_ [60]byte // keep the indices on separate cache lines
	r atomic.Uint32
}

// NewRingBuffer creates a ring buffer holding at least size-1 samples. size
// is rounded up to a power of two.
func NewRingBuffer(size int) *RingBuffer {
	size = max(size, 2)
	n := 1 << bits.Len32(uint32(size-1))
	return &RingBuffer{
		buf:  make([]float32, n),
		mask: uint32(n - 1),
	}
}

// Cap returns the maximum number of samples the buffer holds.
func (rb *RingBuffer) Cap() int {
	return len(rb.buf) - 1
}

// Len returns the number of samples available for reading.
func (rb *RingBuffer) Len() int {
	return int((rb.w.Load() - rb.r.Load()) & rb.mask)
}

// Push appends a sample. It returns false when the buffer is full and the
// sample is dropped.
func (rb *RingBuffer) Push(s float32) bool {
	w := rb.w.Load()
	next := (w + 1) & rb.mask
	if next == rb.r.Load() {
		return false
	}
	rb.buf[w] = s
	rb.w.Store(next)
	return true
}

// Pop removes and returns the oldest sample, or 0 if the buffer is empty.
func (rb *RingBuffer) Pop() float32 {
	s, _ := rb.pop()
	return s
}

func (rb *RingBuffer) pop() (float32, bool) {
	r := rb.r.Load()
	if r == rb.w.Load() {
		return 0, false
	}
	s := rb.buf[r]
	rb.r.Store((r + 1) & rb.mask)
	return s, true
}

// Read fills out with the available samples, in order, and pads the rest
// with silence. It returns the number of real samples read.
func (rb *RingBuffer) Read(out []float32) int {
	n := 0
	for i := range out {
		s, ok := rb.pop()
		if ok {
			n++
		}
		out[i] = s
	}
	return n
}
