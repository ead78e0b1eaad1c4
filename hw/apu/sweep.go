package apu

// sweep periodically adjusts the period of a square channel.
type sweep struct {
	enabled bool
	negate  bool
	period  uint8
	shift   uint8

	reload  bool
	counter uint8

	// Square 1 negates with one's complement.
	onesComplement bool
}

// write configures the sweep unit from $4001/$4005: eppp nsss.
func (sw *sweep) write(val uint8) {
	sw.enabled = val&0x80 != 0
	sw.period = (val >> 4) & 0x07
	sw.negate = val&0x08 != 0
	sw.shift = val & 0x07
	sw.reload = true
}

// sweepTarget computes the period a sweep unit would set, given the current
// period of its channel.
func sweepTarget(period uint16, shift uint8, negate, onesComplement bool) int {
	delta := int(period >> shift)
	if negate {
		delta = -delta
		if onesComplement {
			delta--
		}
	}
	return int(period) + delta
}

// half is clocked by half frames. It returns the new channel period.
func (sw *sweep) half(period uint16) uint16 {
	if sw.counter == 0 && sw.enabled && sw.shift > 0 {
		target := sweepTarget(period, sw.shift, sw.negate, sw.onesComplement)
		if target >= 0 && target < 0x800 && period >= 8 {
			period = uint16(target)
		}
	}

	if sw.counter == 0 || sw.reload {
		sw.counter = sw.period
		sw.reload = false
	} else {
		sw.counter--
	}
	return period
}

func (sw *sweep) reset() {
	*sw = sweep{onesComplement: sw.onesComplement}
}
