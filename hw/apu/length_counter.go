package apu

var lengthTable = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// lengthCounter silences its channel once it reaches 0. It is only loaded
// while the channel is enabled through $4015.
type lengthCounter struct {
	enabled bool
	halt    bool
	value   uint8
}

// load sets the counter from the length table, idx being the top 5 bits of
// the last register of the channel.
func (lc *lengthCounter) load(idx uint8) {
	if lc.enabled {
		lc.value = lengthTable[idx&0x1F]
	}
}

// half is clocked by half frames.
func (lc *lengthCounter) half() {
	if lc.value > 0 && !lc.halt {
		lc.value--
	}
}

func (lc *lengthCounter) setEnabled(enabled bool) {
	lc.enabled = enabled
	if !enabled {
		lc.value = 0
	}
}

func (lc *lengthCounter) status() bool {
	return lc.value > 0
}

func (lc *lengthCounter) reset() {
	lc.enabled = false
	lc.halt = false
	lc.value = 0
}
