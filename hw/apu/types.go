package apu

//go:generate go tool stringer -type=Channel,FrameType -output=types_string.go

// Channel identifies one of the APU sound channels.
type Channel uint8

const (
	Square1 Channel = iota
	Square2
	Triangle
	Noise
	DPCM
)

// FrameType is the kind of clock produced by the frame counter.
type FrameType uint8

const (
	NoFrame FrameType = iota
	QuarterFrame
	HalfFrame
)

// Host is implemented by the CPU side of the bus. The DMC reads sample bytes
// through it, and the APU reports its IRQ line level.
type Host interface {
	// Read8 reads a byte from the CPU address space (DMC DMA).
	Read8(addr uint16) uint8
	// Stall halts the CPU for the given number of cycles (DMA cost).
	Stall(cycles int)
	// SetIRQ is called each time the APU IRQ line (frame counter IRQ or DMC
	// IRQ) changes level.
	SetIRQ(level bool)
}

// SampleFunc receives audio samples as they are produced, in [-1, 1].
type SampleFunc func(sample float32)

type frameTicker interface {
	frameTick(ftyp FrameType)
}
