package apu

import (
	"nesav/emu/log"
	"nesav/hw/hwio"
)

var dmcRates = [16]uint16{428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54}

// dmcStall is the number of CPU cycles stolen by each sample byte fetch.
const dmcStall = 4

// The DMC channel plays 1-bit delta encoded samples fetched from CPU memory.
// It contains the following: memory reader, interrupt flag, sample buffer,
// Timer, output unit, 7-bit counter tied to 7-bit DAC.
//
//	                       +----------+    +---------+
//	                       |DMA Reader|    |  Timer  |
//	                       +----------+    +---------+
//	                            |               |
//	                            |               v
//	                       +----------+    +---------+     +---------+     +---------+
//	                       |  Buffer  |--->|  Output |---->| Counter |---->|   DAC   |
//	                       +----------+    +---------+     +---------+     +---------+
type dmcChannel struct {
	host  Host
	timer timer

	irqEnabled bool
	loop       bool
	irq        bool

	sampleAddr uint16
	sampleLen  uint16
	curAddr    uint16
	remaining  uint16

	buffer      uint8
	bufferEmpty bool
	shifter     uint8
	bitsLeft    uint8

	dac uint8 // 7 bits

	Flags      hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
	Load       hwio.Reg8 `hwio:"offset=0x01,writeonly,wcb"`
	SampleAddr hwio.Reg8 `hwio:"offset=0x02,writeonly,wcb"`
	SampleLen  hwio.Reg8 `hwio:"offset=0x03,writeonly,wcb"`
}

func newDMC(host Host) dmcChannel {
	dmc := dmcChannel{host: host}
	dmc.reset()
	return dmc
}

// $4010: il-- rrrr, i: irq enabled, l: loop, r: rate index.
func (dmc *dmcChannel) WriteFLAGS(_, val uint8) {
	dmc.irqEnabled = val&0x80 != 0
	dmc.loop = val&0x40 != 0
	dmc.timer.period = dmcRates[val&0x0F] - 1
	if !dmc.irqEnabled {
		dmc.irq = false
	}

	log.ModSound.InfoZ("write dmc flags").
		Uint8("reg", val).
		Bool("irq", dmc.irqEnabled).
		Bool("loop", dmc.loop).
		Uint16("period", dmc.timer.period).
		End()
}

// $4011: direct load of the output level.
func (dmc *dmcChannel) WriteLOAD(_, val uint8) {
	dmc.dac = val & 0x7F

	log.ModSound.InfoZ("write dmc load").
		Uint8("dac", dmc.dac).
		End()
}

// $4012: sample address = $C000 + v*64.
func (dmc *dmcChannel) WriteSAMPLEADDR(_, val uint8) {
	dmc.sampleAddr = 0xC000 | uint16(val)<<6

	log.ModSound.InfoZ("write dmc sample addr").
		Hex16("addr", dmc.sampleAddr).
		End()
}

// $4013: sample length = v*16 + 1 bytes.
func (dmc *dmcChannel) WriteSAMPLELEN(_, val uint8) {
	dmc.sampleLen = uint16(val)<<4 | 1

	log.ModSound.InfoZ("write dmc sample len").
		Uint16("len", dmc.sampleLen).
		End()
}

func (dmc *dmcChannel) restart() {
	dmc.curAddr = dmc.sampleAddr
	dmc.remaining = dmc.sampleLen
}

func (dmc *dmcChannel) setEnabled(enabled bool) {
	if !enabled {
		dmc.remaining = 0
		dmc.irq = false
		return
	}
	if dmc.remaining == 0 {
		dmc.restart()
		dmc.refill()
	}
}

// refill fetches the next sample byte into the buffer if it is empty and
// bytes remain.
func (dmc *dmcChannel) refill() {
	if !dmc.bufferEmpty || dmc.remaining == 0 {
		return
	}

	dmc.buffer = dmc.host.Read8(dmc.curAddr)
	dmc.host.Stall(dmcStall)
	dmc.bufferEmpty = false
	dmc.curAddr++
	dmc.remaining--

	if dmc.remaining == 0 {
		switch {
		case dmc.loop:
			dmc.restart()
		case dmc.irqEnabled:
			dmc.irq = true
			log.ModSound.DebugZ("dmc irq").
				Hex16("addr", dmc.curAddr).
				End()
		}
	}
}

func (dmc *dmcChannel) tick() {
	if dmc.timer.tick() {
		dmc.clock()
	}
}

func (dmc *dmcChannel) clock() {
	if dmc.bitsLeft == 0 {
		// Start a new output cycle.
		if dmc.bufferEmpty {
			// Nothing to play, the DAC holds its level.
			return
		}
		dmc.shifter = dmc.buffer
		dmc.bitsLeft = 8
		dmc.bufferEmpty = true
		dmc.refill()
		return
	}

	if dmc.shifter&0x01 != 0 {
		dmc.dac = min(dmc.dac+2, 127)
	} else {
		dmc.dac = max(dmc.dac, 2) - 2
	}
	dmc.shifter >>= 1
	dmc.bitsLeft--
}

func (dmc *dmcChannel) status() bool {
	return dmc.remaining > 0
}

func (dmc *dmcChannel) output() uint8 {
	return dmc.dac
}

func (dmc *dmcChannel) reset() {
	dmc.timer.reset()
	dmc.timer.period = dmcRates[0] - 1
	dmc.irqEnabled = false
	dmc.loop = false
	dmc.irq = false
	dmc.sampleAddr = 0xC000
	dmc.sampleLen = 1
	dmc.curAddr = 0xC000
	dmc.remaining = 0
	dmc.buffer = 0
	dmc.bufferEmpty = true
	dmc.shifter = 0
	dmc.bitsLeft = 0
	dmc.dac = 0
}
