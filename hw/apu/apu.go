package apu

import (
	"nesav/emu/log"
	"nesav/hw/hwdefs"
	"nesav/hw/hwio"
)

const (
	DefaultSampleRate = 44100
	MinSampleRate     = 8000
	MaxSampleRate     = 96000
)

// Config holds the APU output settings.
type Config struct {
	SampleRate   int     // output sample rate in Hz
	MasterVolume float64 // in [0, 1]
	BandLimited  bool    // resample with blip rather than point sampling

	// Ring receives the output samples, if not nil. Samples are dropped when
	// it's full.
	Ring *RingBuffer
	// OnSample is called for each output sample, if not nil.
	OnSample SampleFunc
}

// Stats holds counters about the APU output.
type Stats struct {
	Cycles  uint64
	Samples uint64
	Dropped uint64 // samples not queued because the ring was full
}

type APU struct {
	host  Host
	bus   *hwio.Table
	mixer *Mixer

	Square1  squareChannel
	Square2  squareChannel
	Triangle triangleChannel
	Noise    noiseChannel
	DMC      dmcChannel

	frameCounter frameCounter

	sampleRate uint64
	sampleTime uint64
	resampler  *BandLimited
	ring       *RingBuffer
	onSample   SampleFunc

	irqLine bool
	stats   Stats

	STATUS hwio.Reg8 `hwio:"offset=0x15,pcb,rcb,wcb"`
}

// New creates an APU driven by host. The APU registers are mapped at their
// CPU addresses, $4000-$4017, see Read and Write.
func New(host Host, cfg Config) *APU {
	a := &APU{
		host:     host,
		mixer:    NewMixer(cfg.MasterVolume),
		ring:     cfg.Ring,
		onSample: cfg.OnSample,
		Square1:  newSquareChannel(Square1),
		Square2:  newSquareChannel(Square2),
		Noise:    newNoiseChannel(),
		DMC:      newDMC(host),
	}
	a.frameCounter.init(a)

	rate := cfg.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}
	a.sampleRate = uint64(min(max(rate, MinSampleRate), MaxSampleRate))
	if cfg.BandLimited {
		a.resampler = NewBandLimited(int(a.sampleRate))
	}

	hwio.MustInitRegs(a)
	hwio.MustInitRegs(&a.Square1)
	hwio.MustInitRegs(&a.Square2)
	hwio.MustInitRegs(&a.Triangle)
	hwio.MustInitRegs(&a.Noise)
	hwio.MustInitRegs(&a.DMC)
	hwio.MustInitRegs(&a.frameCounter)

	a.bus = hwio.NewTable("apu")
	a.bus.MapBank(0x4000, &a.Square1, 0)
	a.bus.MapBank(0x4004, &a.Square2, 0)
	a.bus.MapBank(0x4008, &a.Triangle, 0)
	a.bus.MapBank(0x400C, &a.Noise, 0)
	a.bus.MapBank(0x4010, &a.DMC, 0)
	a.bus.MapBank(0x4000, a, 0)
	a.bus.MapBank(0x4017, &a.frameCounter, 0)

	log.ModSound.InfoZ("apu created").
		Uint("rate", uint(a.sampleRate)).
		Float("volume", a.mixer.MasterVolume()).
		Bool("band-limited", cfg.BandLimited).
		End()
	return a
}

// Reset restores the power-up state. Output settings are preserved.
func (a *APU) Reset() {
	a.Square1.reset()
	a.Square2.reset()
	a.Triangle.reset()
	a.Noise.reset()
	a.DMC.reset()
	a.frameCounter.reset()
	a.sampleTime = 0
	if a.resampler != nil {
		a.resampler.Reset()
	}
	a.stats = Stats{}
	a.updateIRQ()
}

// Read reads the APU register at addr. Unmapped and write-only registers read
// as 0.
func (a *APU) Read(addr uint16) uint8 {
	val := a.bus.Read8(addr)
	a.updateIRQ()
	return val
}

// Peek is like Read without side effects.
func (a *APU) Peek(addr uint16) uint8 {
	return a.bus.Peek8(addr)
}

// Write writes val to the APU register at addr. Writes to unmapped registers
// are dropped.
func (a *APU) Write(addr uint16, val uint8) {
	a.bus.Write8(addr, val)
	a.updateIRQ()
}

// SetMasterVolume changes the output volume, clamped to [0, 1].
func (a *APU) SetMasterVolume(volume float64) {
	a.mixer.SetMasterVolume(volume)
}

// SetRing replaces the ring buffer samples are queued to. A nil ring disables
// queueing, samples are still produced and passed to the sample callback.
func (a *APU) SetRing(ring *RingBuffer) {
	a.ring = ring
}

func (a *APU) SampleRate() int {
	return int(a.sampleRate)
}

func (a *APU) Stats() Stats {
	return a.stats
}

func (a *APU) status() uint8 {
	var status uint8

	if a.Square1.status() {
		status |= 0x01
	}
	if a.Square2.status() {
		status |= 0x02
	}
	if a.Triangle.status() {
		status |= 0x04
	}
	if a.Noise.status() {
		status |= 0x08
	}
	if a.DMC.status() {
		status |= 0x10
	}
	if a.frameCounter.irq {
		status |= 0x40
	}
	if a.DMC.irq {
		status |= 0x80
	}
	return status
}

// irqSources returns the devices currently asserting the IRQ line.
func (a *APU) irqSources() hwdefs.IRQSource {
	var src hwdefs.IRQSource
	if a.frameCounter.irq {
		src |= hwdefs.FrameCounter
	}
	if a.DMC.irq {
		src |= hwdefs.DMC
	}
	return src
}

// STATUS: $4015
func (a *APU) PeekSTATUS(_ uint8) uint8 {
	return a.status()
}

func (a *APU) ReadSTATUS(_ uint8) uint8 {
	status := a.status()

	// Reading $4015 clears both interrupt flags.
	a.frameCounter.irq = false
	a.DMC.irq = false

	log.ModSound.InfoZ("read status").Hex8("status", status).End()
	return status
}

func (a *APU) WriteSTATUS(_, val uint8) {
	log.ModSound.InfoZ("write status").Hex8("val", val).End()

	a.Square1.setEnabled(val&0x01 != 0)
	a.Square2.setEnabled(val&0x02 != 0)
	a.Triangle.setEnabled(val&0x04 != 0)
	a.Noise.setEnabled(val&0x08 != 0)
	a.DMC.setEnabled(val&0x10 != 0)
}

func (a *APU) frameTick(ftyp FrameType) {
	// Quarter & half frames clock envelopes & linear counter.
	a.Square1.quarterFrame()
	a.Square2.quarterFrame()
	a.Triangle.quarterFrame()
	a.Noise.quarterFrame()

	if ftyp == HalfFrame {
		// Half frames clock length counters & sweep units.
		a.Square1.halfFrame()
		a.Square2.halfFrame()
		a.Triangle.halfFrame()
		a.Noise.halfFrame()
	}
}

func (a *APU) updateIRQ() {
	level := a.frameCounter.irq || a.DMC.irq
	if level == a.irqLine {
		return
	}
	a.irqLine = level

	log.ModSound.DebugZ("irq line").
		Bool("level", level).
		Stringer("src", a.irqSources()).
		End()
	a.host.SetIRQ(level)
}

// Levels returns the current output level of each channel.
func (a *APU) Levels() [hwdefs.NumAudioChannels]uint8 {
	return [hwdefs.NumAudioChannels]uint8{
		Square1:  a.Square1.output(),
		Square2:  a.Square2.output(),
		Triangle: a.Triangle.output(),
		Noise:    a.Noise.output(),
		DPCM:     a.DMC.output(),
	}
}

// Step runs the APU for the given number of CPU cycles.
func (a *APU) Step(cycles int) {
	for range cycles {
		a.tick()
	}
}

func (a *APU) tick() {
	a.stats.Cycles++

	a.frameCounter.tick()
	a.Square1.tick()
	a.Square2.tick()
	a.Triangle.tick()
	a.Noise.tick()
	a.DMC.tick()
	a.updateIRQ()

	if a.resampler != nil {
		if a.resampler.Add(a.mixer.Mix(a.Levels())) {
			a.resampler.Drain(a.emit)
		}
		return
	}

	// Point sampling: one sample every CPUClockRate/sampleRate cycles, the
	// fractional part being carried over.
	a.sampleTime += a.sampleRate
	if a.sampleTime >= hwdefs.CPUClockRate {
		a.sampleTime -= hwdefs.CPUClockRate
		a.emit(a.mixer.Mix(a.Levels()))
	}
}

func (a *APU) emit(sample float32) {
	a.stats.Samples++
	if a.onSample != nil {
		a.onSample(sample)
	}
	if a.ring != nil && !a.ring.Push(sample) {
		a.stats.Dropped++
	}
}
