package apu

import "testing"

func TestLengthCounterLoad(t *testing.T) {
	for i := range uint8(32) {
		lc := lengthCounter{enabled: true}
		lc.load(i)
		if lc.value != lengthTable[i] {
			t.Errorf("load(%d): value = %d, want %d", i, lc.value, lengthTable[i])
		}
	}

	lc := lengthCounter{enabled: true}
	lc.load(1)
	if lc.value != 254 {
		t.Errorf("load(1): value = %d, want 254", lc.value)
	}

	// Disabled counters aren't loaded.
	lc = lengthCounter{}
	lc.load(1)
	if lc.value != 0 {
		t.Errorf("disabled load(1): value = %d, want 0", lc.value)
	}
}

func TestLengthCounterHalt(t *testing.T) {
	lc := lengthCounter{enabled: true}
	lc.load(3) // 2

	lc.halt = true
	lc.half()
	if lc.value != 2 {
		t.Errorf("halted: value = %d, want 2", lc.value)
	}

	lc.halt = false
	for range 5 {
		lc.half()
	}
	if lc.value != 0 {
		t.Errorf("value = %d, want 0", lc.value)
	}

	lc.load(1)
	lc.setEnabled(false)
	if lc.value != 0 {
		t.Errorf("after disable: value = %d, want 0", lc.value)
	}
}

func TestEnvelope(t *testing.T) {
	var env envelope
	env.write(0x00) // decay, period 0, no loop
	env.restart()
	env.quarter()
	if env.decay != 15 {
		t.Fatalf("after restart: decay = %d, want 15", env.decay)
	}

	for i := 14; i >= 0; i-- {
		env.quarter()
		if int(env.decay) != i {
			t.Fatalf("decay = %d, want %d", env.decay, i)
		}
	}
	env.quarter()
	if env.decay != 0 {
		t.Errorf("no loop: decay = %d, want 0", env.decay)
	}

	env.write(0x20) // loop
	env.quarter()
	if env.decay != 15 {
		t.Errorf("loop: decay = %d, want 15", env.decay)
	}

	env.write(0x17) // constant volume 7
	if got := env.output(); got != 7 {
		t.Errorf("constant volume: output = %d, want 7", got)
	}
}

func TestEnvelopeDecayBound(t *testing.T) {
	for v := range uint8(0x40) {
		var env envelope
		env.write(v)
		env.restart()
		for i := range 1000 {
			if i%97 == 0 {
				env.restart()
			}
			env.quarter()
			if env.decay > 15 {
				t.Fatalf("reg=%02x: decay = %d after %d quarters", v, env.decay, i)
			}
		}
	}
}

func TestEnvelopeDivider(t *testing.T) {
	var env envelope
	env.write(0x02) // period 2: decay every 3 quarters
	env.restart()
	env.quarter()

	got := []uint8{}
	for range 6 {
		env.quarter()
		got = append(got, env.decay)
	}
	want := []uint8{15, 15, 14, 14, 14, 13}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("decay sequence = %v, want %v", got, want)
		}
	}
}

func TestSweepTarget(t *testing.T) {
	tests := []struct {
		period         uint16
		shift          uint8
		negate         bool
		onesComplement bool
		want           int
	}{
		{period: 0x100, shift: 1, want: 0x180},
		{period: 0x100, shift: 1, negate: true, want: 0x080},
		{period: 0x100, shift: 1, negate: true, onesComplement: true, want: 0x07F},
		{period: 0x400, shift: 0, want: 0x800},
		{period: 0x7FF, shift: 7, want: 0x7FF + 0x0F},
		{period: 0x008, shift: 3, negate: true, onesComplement: true, want: 6},
	}
	for _, tt := range tests {
		got := sweepTarget(tt.period, tt.shift, tt.negate, tt.onesComplement)
		if got != tt.want {
			t.Errorf("sweepTarget(%#x, %d, %t, %t) = %#x, want %#x",
				tt.period, tt.shift, tt.negate, tt.onesComplement, got, tt.want)
		}
	}
}

func TestSweepHalf(t *testing.T) {
	t.Run("apply", func(t *testing.T) {
		var sw sweep
		sw.write(0x81) // enabled, period 0, shift 1
		if got := sw.half(0x100); got != 0x180 {
			t.Errorf("half(0x100) = %#x, want 0x180", got)
		}
		if sw.reload {
			t.Errorf("reload flag still set")
		}
		if got := sw.half(0x180); got != 0x240 {
			t.Errorf("half(0x180) = %#x, want 0x240", got)
		}
	})
	t.Run("overflow", func(t *testing.T) {
		var sw sweep
		sw.write(0x81)
		if got := sw.half(0x600); got != 0x600 {
			t.Errorf("half(0x600) = %#x, want unchanged", got)
		}
	})
	t.Run("short period", func(t *testing.T) {
		var sw sweep
		sw.write(0x89) // negate
		if got := sw.half(7); got != 7 {
			t.Errorf("half(7) = %#x, want unchanged", got)
		}
	})
	t.Run("divider", func(t *testing.T) {
		var sw sweep
		sw.write(0xA1) // period 2, shift 1
		period := uint16(0x100)
		changes := 0
		for range 9 {
			if p := sw.half(period); p != period {
				changes++
				period = p
			}
		}
		// Applied on the 1st half frame (reload), then every 3 half frames.
		if changes != 3 {
			t.Errorf("sweep applied %d times, want 3", changes)
		}
	})
}

func TestTimer(t *testing.T) {
	tm := timer{period: 3}
	fired := 0
	for range 40 {
		if tm.tick() {
			fired++
		}
	}
	if fired != 10 {
		t.Errorf("fired %d times, want 10", fired)
	}
}

func TestNoiseShift(t *testing.T) {
	tests := []struct {
		mode       bool
		lfsr, want uint16
	}{
		{lfsr: 0x0001, want: 0x4000},
		{lfsr: 0x0002, want: 0x4001},
		{lfsr: 0x0003, want: 0x0001},
		{mode: true, lfsr: 0x0001, want: 0x4000},
		{mode: true, lfsr: 0x0041, want: 0x0020},
	}
	for _, tt := range tests {
		nc := noiseChannel{mode: tt.mode, lfsr: tt.lfsr}
		nc.shift()
		if nc.lfsr != tt.want {
			t.Errorf("mode=%t lfsr=%#04x: shift = %#04x, want %#04x", tt.mode, tt.lfsr, nc.lfsr, tt.want)
		}
	}
}

func TestTriangleLinearCounter(t *testing.T) {
	var tc triangleChannel
	tc.WriteLINEAR(0, 0x05)
	tc.WriteLENGTH(0, 0x00)

	tc.quarterFrame()
	if tc.linearCounter != 5 {
		t.Fatalf("linear counter = %d, want 5", tc.linearCounter)
	}
	if tc.reloadLinear {
		t.Errorf("reload flag not cleared with control=0")
	}
	for range 10 {
		tc.quarterFrame()
	}
	if tc.linearCounter != 0 {
		t.Errorf("linear counter = %d, want 0", tc.linearCounter)
	}

	// With the control flag set, the counter is reloaded on each quarter.
	tc.WriteLINEAR(0, 0x83)
	tc.WriteLENGTH(0, 0x00)
	for range 4 {
		tc.quarterFrame()
	}
	if tc.linearCounter != 3 {
		t.Errorf("control=1: linear counter = %d, want 3", tc.linearCounter)
	}
}

func TestTriangleSequence(t *testing.T) {
	var tc triangleChannel
	tc.setEnabled(true)
	tc.WriteLINEAR(0, 0x7F)
	tc.WriteTIMER(0, 0x10)
	tc.WriteLENGTH(0, 0x08)
	tc.quarterFrame()

	// The timer fires on the first of every 17 ticks.
	var got []uint8
	for range 32 {
		for range 0x10 + 1 {
			tc.tick()
		}
		got = append(got, tc.output())
	}
	for i, v := range got {
		if want := triangleSequence[(i+1)&0x1F]; v != want {
			t.Fatalf("step %d: output = %d, want %d", i, v, want)
		}
	}
}

func TestDMCClamp(t *testing.T) {
	dmc := newDMC(&testHost{})

	// One output clock per case.
	tests := []struct {
		dac, shifter uint8
		want         uint8
	}{
		{dac: 64, shifter: 0x01, want: 66},
		{dac: 64, shifter: 0x00, want: 62},
		{dac: 125, shifter: 0x01, want: 127},
		{dac: 126, shifter: 0x01, want: 127},
		{dac: 127, shifter: 0x01, want: 127},
		{dac: 2, shifter: 0x00, want: 0},
		{dac: 1, shifter: 0x00, want: 0},
		{dac: 0, shifter: 0x00, want: 0},
	}
	for _, tt := range tests {
		dmc.dac = tt.dac
		dmc.shifter = tt.shifter
		dmc.bitsLeft = 1
		dmc.clock()
		if dmc.dac != tt.want {
			t.Errorf("dac=%d bit=%d: got %d, want %d", tt.dac, tt.shifter, dmc.dac, tt.want)
		}
	}

	dmc.dac = 120
	dmc.shifter = 0xFF
	dmc.bitsLeft = 8
	for range 8 {
		dmc.clock()
	}
	if dmc.dac != 127 {
		t.Errorf("dac = %d, want 127", dmc.dac)
	}

	dmc.dac = 64
	dmc.shifter = 0b0101_0111
	dmc.bitsLeft = 8
	for range 8 {
		dmc.clock()
	}
	// 5 set bits, 3 clear bits.
	if dmc.dac != 64+4 {
		t.Errorf("dac = %d, want %d", dmc.dac, 64+4)
	}
}

func TestMixer(t *testing.T) {
	var zero [5]uint8
	if got := mixLevels(zero); got != 0 {
		t.Errorf("mixLevels(0) = %v, want 0", got)
	}

	full := [5]uint8{15, 15, 15, 15, 127}
	if got := mixLevels(full); got < 0.99 || got > 1.0 {
		t.Errorf("mixLevels(max) = %v, want ~1", got)
	}

	for _, vol := range []float64{-1, 0, 0.25, 0.5, 1, 2} {
		m := NewMixer(vol)
		if v := m.MasterVolume(); v < 0 || v > 1 {
			t.Errorf("NewMixer(%v): volume = %v, not clamped", vol, v)
		}
		for p := range uint8(16) {
			for d := uint8(0); d < 128; d += 9 {
				s := m.Mix([5]uint8{p, 15 - p, p, p / 2, d})
				if s < -1 || s > 1 {
					t.Fatalf("Mix out of range: %v", s)
				}
			}
		}
	}

	if got := NewMixer(0).Mix(full); got != -1 {
		t.Errorf("volume 0: Mix = %v, want -1", got)
	}
}
