package apu

// envelope generates a decaying volume, or a constant one, for the square
// and noise channels.
type envelope struct {
	constantVolume bool
	loop           bool
	volume         uint8 // also the divider period

	start   bool
	divider uint8
	decay   uint8
}

// write configures the envelope from the first register of its channel:
// --lc vvvv, l: loop, c: constant volume, v: volume/period.
func (env *envelope) write(val uint8) {
	env.loop = val&0x20 != 0
	env.constantVolume = val&0x10 != 0
	env.volume = val & 0x0F
}

func (env *envelope) restart() {
	env.start = true
}

// quarter is clocked by quarter frames.
func (env *envelope) quarter() {
	if env.start {
		env.start = false
		env.decay = 15
		env.divider = env.volume
		return
	}

	if env.divider > 0 {
		env.divider--
		return
	}

	env.divider = env.volume
	if env.decay > 0 {
		env.decay--
	} else if env.loop {
		env.decay = 15
	}
}

func (env *envelope) output() uint8 {
	if env.constantVolume {
		return env.volume
	}
	return env.decay
}

func (env *envelope) reset() {
	*env = envelope{}
}
