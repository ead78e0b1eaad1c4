package apu

import (
	"github.com/arl/blip"

	"nesav/hw/hwdefs"
)

const (
	// Number of CPU clocks making up a blip frame.
	blipFrameLength = 10000
	// Size of the blip sample buffer. Must hold one frame at MaxSampleRate.
	blipBufferSize = MaxSampleRate*blipFrameLength/hwdefs.CPUClockRate + 64
)

// BandLimited resamples the mixed signal from the CPU clock rate to the output
// sample rate with band-limited synthesis, rather than point sampling it.
type BandLimited struct {
	buf  *blip.Buffer
	time uint64
	prev int32
	out  []int16
}

func NewBandLimited(sampleRate int) *BandLimited {
	buf := blip.NewBuffer(blipBufferSize)
	buf.SetRates(hwdefs.CPUClockRate, float64(sampleRate))
	return &BandLimited{
		buf: buf,
		out: make([]int16, blipBufferSize),
	}
}

// Add feeds the signal level for one CPU clock. It reports whether a frame
// has been completed and samples are ready to be drained.
func (bl *BandLimited) Add(level float32) bool {
	amp := int32(level * 32767)
	if amp != bl.prev {
		bl.buf.AddDelta(bl.time, amp-bl.prev)
		bl.prev = amp
	}

	bl.time++
	if bl.time < blipFrameLength {
		return false
	}
	bl.buf.EndFrame(int(bl.time))
	bl.time = 0
	return true
}

// Drain passes all available samples to emit, in [-1, 1].
func (bl *BandLimited) Drain(emit SampleFunc) {
	n := bl.buf.ReadSamples(bl.out, len(bl.out), blip.Mono)
	for _, s := range bl.out[:n] {
		emit(float32(s) / 32768)
	}
}

func (bl *BandLimited) Reset() {
	bl.buf.Clear()
	bl.time = 0
	bl.prev = 0
}
