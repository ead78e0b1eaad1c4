package apu

import (
	"testing"

	"nesav/emu/log"
)

func init() {
	log.Disable()
}

type testHost struct {
	mem    [0x10000]uint8
	reads  []uint16
	stalls int
	irqs   []bool
}

func (h *testHost) Read8(addr uint16) uint8 {
	h.reads = append(h.reads, addr)
	return h.mem[addr]
}

func (h *testHost) Stall(cycles int)  { h.stalls += cycles }
func (h *testHost) SetIRQ(level bool) { h.irqs = append(h.irqs, level) }

func newTestAPU(tb testing.TB, cfg Config) (*APU, *testHost) {
	tb.Helper()

	host := &testHost{}
	return New(host, cfg), host
}

// cyclesForBoundaries returns the number of CPU cycles after which the frame
// counter has crossed its k-th step boundary.
func cyclesForBoundaries(k int) int {
	const clock = 1789773
	return (k*clock + quarterFrameRate - 1) / quarterFrameRate
}
