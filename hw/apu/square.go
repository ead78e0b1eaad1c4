package apu

import (
	"nesav/emu/log"
	"nesav/hw/hwio"
)

var dutyTable = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0}, // 12.5%
	{0, 1, 1, 0, 0, 0, 0, 0}, // 25%
	{0, 1, 1, 1, 1, 0, 0, 0}, // 50%
	{1, 0, 0, 1, 1, 1, 1, 1}, // 25% negated
}

// There are two square channels beginning at registers $4000 and $4004. Each
// contains the following: Envelope Generator, Sweep Unit, Timer with
// divide-by-two on the output, 8-step sequencer, Length Counter.
//
//	               +---------+    +---------+
//	               |  Sweep  |--->|Timer / 2|
//	               +---------+    +---------+
//	                    |              |
//	                    |              v
//	                    |         +---------+    +---------+
//	                    |         |Sequencer|    | Length  |
//	                    |         +---------+    +---------+
//	                    |              |              |
//	                    v              v              v
//	+---------+        |\             |\             |\          +---------+
//	|Envelope |------->| >----------->| >----------->| >-------->|   DAC   |
//	+---------+        |/             |/             |/          +---------+
type squareChannel struct {
	channel  Channel
	envelope envelope
	sweep    sweep
	length   lengthCounter
	timer    timer

	period  uint16 // 11-bit period, as programmed
	duty    uint8
	dutyPos uint8

	Duty   hwio.Reg8 `hwio:"offset=0x00,writeonly,wcb"`
	Sweep  hwio.Reg8 `hwio:"offset=0x01,writeonly,wcb"`
	Timer  hwio.Reg8 `hwio:"offset=0x02,writeonly,wcb"`
	Length hwio.Reg8 `hwio:"offset=0x03,writeonly,wcb"`
}

func newSquareChannel(channel Channel) squareChannel {
	return squareChannel{
		channel: channel,
		sweep:   sweep{onesComplement: channel == Square1},
	}
}

func (sc *squareChannel) WriteDUTY(_, val uint8) {
	sc.duty = val >> 6
	sc.envelope.write(val)
	sc.length.halt = val&0x20 != 0

	log.ModSound.InfoZ("write pulse duty").
		Stringer("ch", sc.channel).
		Uint8("reg", val).
		Uint8("duty", sc.duty).
		End()
}

func (sc *squareChannel) WriteSWEEP(_, val uint8) {
	sc.sweep.write(val)

	log.ModSound.InfoZ("write pulse sweep").
		Stringer("ch", sc.channel).
		Uint8("reg", val).
		End()
}

func (sc *squareChannel) WriteTIMER(_, val uint8) {
	sc.setPeriod(sc.period&0x0700 | uint16(val))

	log.ModSound.InfoZ("write pulse timer").
		Stringer("ch", sc.channel).
		Uint8("reg", val).
		Uint16("period", sc.period).
		End()
}

func (sc *squareChannel) WriteLENGTH(_, val uint8) {
	sc.setPeriod(sc.period&0x00FF | uint16(val&0x07)<<8)
	sc.length.load(val >> 3)

	// Sequencer and envelope are both restarted.
	sc.dutyPos = 0
	sc.envelope.restart()

	log.ModSound.InfoZ("write pulse length").
		Stringer("ch", sc.channel).
		Uint8("reg", val).
		Uint8("length", sc.length.value).
		Uint16("period", sc.period).
		End()
}

func (sc *squareChannel) setPeriod(period uint16) {
	sc.period = period
	sc.timer.period = period
}

func (sc *squareChannel) tick() {
	if sc.timer.tick() {
		sc.dutyPos = (sc.dutyPos + 1) & 0x07
	}
}

func (sc *squareChannel) quarterFrame() {
	sc.envelope.quarter()
}

func (sc *squareChannel) halfFrame() {
	sc.length.half()
	if period := sc.sweep.half(sc.period); period != sc.period {
		sc.setPeriod(period)
	}
}

func (sc *squareChannel) setEnabled(enabled bool) {
	sc.length.setEnabled(enabled)
}

func (sc *squareChannel) status() bool {
	return sc.length.status()
}

func (sc *squareChannel) output() uint8 {
	if !sc.length.status() || sc.period < 8 || dutyTable[sc.duty][sc.dutyPos] == 0 {
		return 0
	}
	return sc.envelope.output()
}

func (sc *squareChannel) reset() {
	sc.envelope.reset()
	sc.sweep.reset()
	sc.length.reset()
	sc.timer.reset()
	sc.period = 0
	sc.duty = 0
	sc.dutyPos = 0
}
