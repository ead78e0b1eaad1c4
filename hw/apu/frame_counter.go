package apu

import (
	"nesav/emu/log"
	"nesav/hw/hwdefs"
	"nesav/hw/hwio"
)

// quarterFrameRate is the frequency in Hz of the frame counter sequence
// steps. Step boundaries fall on multiples of CPUClockRate/quarterFrameRate
// CPU cycles, tracked exactly with an integer accumulator.
const quarterFrameRate = 240

// frameCounter is the APU frame sequencer. It clocks envelopes and the
// triangle linear counter on quarter frames, length counters and sweep units
// on half frames.
//
//	mode 0 (4-step):  - q - h - q - h+irq
//	mode 1 (5-step):  - q - h - q - h     (immediate h on write)
type frameCounter struct {
	ticker frameTicker

	mode5      bool
	irqInhibit bool
	irq        bool

	seqTime uint64
	phase   uint8

	FrameCounter hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
}

func (fc *frameCounter) init(ticker frameTicker) {
	fc.ticker = ticker
	fc.reset()
}

// $4017: mi-- ----, m: 5-step mode, i: irq inhibit.
func (fc *frameCounter) WriteFRAMECOUNTER(_, val uint8) {
	fc.mode5 = val&0x80 != 0
	fc.irqInhibit = val&0x40 != 0
	if fc.irqInhibit {
		fc.irq = false
	}

	fc.seqTime = 0
	fc.phase = 0

	log.ModSound.InfoZ("write frame counter").
		Uint8("reg", val).
		Bool("mode5", fc.mode5).
		Bool("inhibit", fc.irqInhibit).
		End()

	if fc.mode5 {
		fc.ticker.frameTick(HalfFrame)
	}
}

func (fc *frameCounter) tick() {
	fc.seqTime += quarterFrameRate
	if fc.seqTime < hwdefs.CPUClockRate {
		return
	}
	fc.seqTime -= hwdefs.CPUClockRate

	switch fc.phase {
	case 0, 2:
		fc.ticker.frameTick(QuarterFrame)
	case 1:
		fc.ticker.frameTick(HalfFrame)
	case 3:
		fc.ticker.frameTick(HalfFrame)
		if !fc.mode5 && !fc.irqInhibit {
			fc.irq = true
		}
	}
	fc.phase = (fc.phase + 1) & 0x03
}

func (fc *frameCounter) reset() {
	fc.mode5 = false
	fc.irqInhibit = false
	fc.irq = false
	fc.seqTime = 0
	fc.phase = 0
}
