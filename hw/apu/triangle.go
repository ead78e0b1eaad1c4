package apu

import (
	"nesav/emu/log"
	"nesav/hw/hwio"
)

var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// The triangle channel contains the following: Timer, 32-step sequencer,
// Length Counter, Linear Counter, 4-bit DAC.
//
//	      +---------+    +---------+
//	      |LinearCtr|    | Length  |
//	      +---------+    +---------+
//	           |              |
//	           v              v
//	+---------+        |\             |\         +---------+    +---------+
//	|  Timer  |------->| >----------->| >------->|Sequencer|--->|   DAC   |
//	+---------+        |/             |/         +---------+    +---------+
type triangleChannel struct {
	length lengthCounter
	timer  timer

	period uint16
	pos    uint8

	control       bool // also the length counter halt flag
	linearReload  uint8
	linearCounter uint8
	reloadLinear  bool

	Linear hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
	Timer  hwio.Reg8 `hwio:"offset=0x02,writeonly,wcb"`
	Length hwio.Reg8 `hwio:"offset=0x03,writeonly,wcb"`
}

func (tc *triangleChannel) WriteLINEAR(_, val uint8) {
	tc.control = val&0x80 != 0
	tc.linearReload = val & 0x7F
	tc.length.halt = tc.control

	log.ModSound.InfoZ("write triangle linear").
		Uint8("reg", val).
		Bool("control", tc.control).
		Uint8("reload", tc.linearReload).
		End()
}

func (tc *triangleChannel) WriteTIMER(_, val uint8) {
	tc.setPeriod(tc.period&0x0700 | uint16(val))

	log.ModSound.InfoZ("write triangle timer").
		Uint8("reg", val).
		Uint16("period", tc.period).
		End()
}

func (tc *triangleChannel) WriteLENGTH(_, val uint8) {
	tc.setPeriod(tc.period&0x00FF | uint16(val&0x07)<<8)
	tc.length.load(val >> 3)
	tc.reloadLinear = true

	log.ModSound.InfoZ("write triangle length").
		Uint8("reg", val).
		Uint8("length", tc.length.value).
		Uint16("period", tc.period).
		End()
}

func (tc *triangleChannel) setPeriod(period uint16) {
	tc.period = period
	tc.timer.period = period
}

func (tc *triangleChannel) tick() {
	if !tc.timer.tick() {
		return
	}
	// Periods below 2 are ultrasonic, the sequencer is frozen so that the
	// output doesn't pop.
	if tc.length.status() && tc.linearCounter > 0 && tc.period >= 2 {
		tc.pos = (tc.pos + 1) & 0x1F
	}
}

// quarterFrame clocks the linear counter.
func (tc *triangleChannel) quarterFrame() {
	if tc.reloadLinear {
		tc.linearCounter = tc.linearReload
	} else if tc.linearCounter > 0 {
		tc.linearCounter--
	}
	if !tc.control {
		tc.reloadLinear = false
	}
}

func (tc *triangleChannel) halfFrame() {
	tc.length.half()
}

func (tc *triangleChannel) setEnabled(enabled bool) {
	tc.length.setEnabled(enabled)
}

func (tc *triangleChannel) status() bool {
	return tc.length.status()
}

func (tc *triangleChannel) output() uint8 {
	return triangleSequence[tc.pos]
}

func (tc *triangleChannel) reset() {
	tc.length.reset()
	tc.timer.reset()
	tc.period = 0
	tc.pos = 0
	tc.control = false
	tc.linearReload = 0
	tc.linearCounter = 0
	tc.reloadLinear = false
}
