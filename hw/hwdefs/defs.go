package hwdefs

import "strings"

// IRQSource identifies a device driving the CPU IRQ line.
type IRQSource uint8

const (
	FrameCounter IRQSource = 1 << iota
	DMC

	numSources = 2
)

var irqSrcNames = [numSources]string{
	"fcnt",
	"dmc",
}

func (irq IRQSource) String() string {
	var names []string
	for i := range numSources {
		if irq&(1<<i) != 0 {
			names = append(names, irqSrcNames[i])
		}
	}
	return strings.Join(names, "|")
}

const NumAudioChannels = 5 // Square1, Square2, Triangle, Noise, DMC

// NTSC CPU clock rate, in Hz. APU timings and output sample rates are
// expressed relative to it.
const CPUClockRate = 1789773

// Visible frame dimensions.
const (
	NTSCWidth  = 256
	NTSCHeight = 240
)

const (
	NumScanlines = 262 // Number of scanlines per frame.
	NumCycles    = 341 // Number of PPU cycles per scanline.
)
