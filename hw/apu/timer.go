package apu

// timer is a divider clocked by the CPU clock. It fires once every period+1
// clocks.
type timer struct {
	period  uint16
	counter uint16
}

func (t *timer) tick() bool {
	if t.counter == 0 {
		t.counter = t.period
		return true
	}
	t.counter--
	return false
}

func (t *timer) reset() {
	t.period = 0
	t.counter = 0
}
