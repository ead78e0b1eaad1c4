package apu

import (
	"nesav/emu/log"
	"nesav/hw/hwio"
)

var noisePeriods = [16]uint16{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068}

// The noise channel contains the following: Envelope Generator, Timer,
// Linear Feedback Shift Register, Length Counter.
//
//	   +---------+    +---------+    +---------+
//	   |  Timer  |--->| Random  |    | Length  |
//	   +---------+    +---------+    +---------+
//	                       |              |
//	                       v              v
//	   +---------+        |\             |\         +---------+
//	   |Envelope |------->| >----------->| >------->|   DAC   |
//	   +---------+        |/             |/         +---------+
type noiseChannel struct {
	envelope envelope
	length   lengthCounter
	timer    timer

	mode bool   // short mode: feedback from bit 6 instead of bit 1
	lfsr uint16 // 15 bits

	Envelope hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
	Period   hwio.Reg8 `hwio:"offset=0x02,writeonly,wcb"`
	Length   hwio.Reg8 `hwio:"offset=0x03,writeonly,wcb"`
}

func newNoiseChannel() noiseChannel {
	return noiseChannel{lfsr: 1}
}

func (nc *noiseChannel) WriteENVELOPE(_, val uint8) {
	nc.envelope.write(val)
	nc.length.halt = val&0x20 != 0

	log.ModSound.InfoZ("write noise envelope").
		Uint8("reg", val).
		End()
}

func (nc *noiseChannel) WritePERIOD(_, val uint8) {
	nc.mode = val&0x80 != 0
	nc.timer.period = noisePeriods[val&0x0F] - 1

	log.ModSound.InfoZ("write noise period").
		Uint8("reg", val).
		Bool("mode", nc.mode).
		Uint16("period", nc.timer.period).
		End()
}

func (nc *noiseChannel) WriteLENGTH(_, val uint8) {
	nc.length.load(val >> 3)
	nc.envelope.restart()

	log.ModSound.InfoZ("write noise length").
		Uint8("reg", val).
		Uint8("length", nc.length.value).
		End()
}

func (nc *noiseChannel) tick() {
	if nc.timer.tick() {
		nc.shift()
	}
}

func (nc *noiseChannel) shift() {
	other := uint16(1)
	if nc.mode {
		other = 6
	}
	feedback := (nc.lfsr ^ nc.lfsr>>other) & 0x01
	nc.lfsr = nc.lfsr>>1 | feedback<<14
}

func (nc *noiseChannel) quarterFrame() {
	nc.envelope.quarter()
}

func (nc *noiseChannel) halfFrame() {
	nc.length.half()
}

func (nc *noiseChannel) setEnabled(enabled bool) {
	nc.length.setEnabled(enabled)
}

func (nc *noiseChannel) status() bool {
	return nc.length.status()
}

func (nc *noiseChannel) output() uint8 {
	if !nc.length.status() || nc.lfsr&0x01 != 0 {
		return 0
	}
	return nc.envelope.output()
}

func (nc *noiseChannel) reset() {
	nc.envelope.reset()
	nc.length.reset()
	nc.timer.reset()
	nc.mode = false
	nc.lfsr = 1
}
