package apu

import "nesav/hw/hwdefs"

// Mixer combines the channel levels into a single sample, following the
// non-linear response of the NES DAC.
//
//	pulse_out = 95.88 / (8128 / (pulse1 + pulse2) + 100)
//	tnd_out   = 159.79 / (1 / (triangle/8227 + noise/12241 + dmc/22638) + 100)
type Mixer struct {
	volume float64
}

func NewMixer(volume float64) *Mixer {
	m := &Mixer{}
	m.SetMasterVolume(volume)
	return m
}

// SetMasterVolume sets the master volume, clamped to [0, 1].
func (m *Mixer) SetMasterVolume(volume float64) {
	m.volume = min(max(volume, 0), 1)
}

func (m *Mixer) MasterVolume() float64 {
	return m.volume
}

// mixLevels returns the mixed output in [0, 1] for the given channel levels.
func mixLevels(levels [hwdefs.NumAudioChannels]uint8) float64 {
	var pulseOut, tndOut float64

	if pulse := float64(levels[Square1]) + float64(levels[Square2]); pulse > 0 {
		pulseOut = 95.88 / (8128/pulse + 100)
	}

	tnd := float64(levels[Triangle])/8227 +
		float64(levels[Noise])/12241 +
		float64(levels[DPCM])/22638
	if tnd > 0 {
		tndOut = 159.79 / (1/tnd + 100)
	}

	return pulseOut + tndOut
}

// Mix returns the sample for the given channel levels, scaled by the master
// volume and rescaled to [-1, 1].
func (m *Mixer) Mix(levels [hwdefs.NumAudioChannels]uint8) float32 {
	s := mixLevels(levels)*m.volume*2 - 1
	return float32(min(max(s, -1), 1))
}
