package ppu

import (
	"image"

	"nesav/emu/log"
	"nesav/hw/hwdefs"
	"nesav/hw/hwio"
)

const (
	vramSize = 0x4000
	oamSize  = 0x100
)

// Host receives the PPU outputs.
type Host interface {
	// TriggerNMI is called at vblank start when NMI generation is enabled in
	// PPUCTRL.
	TriggerNMI()
	// FrameReady is called at vblank start with the rendered frame. img is
	// owned by the PPU and overwritten by the next frame.
	FrameReady(frame uint64, img *image.RGBA)
}

// PPU is a frame-based NES picture processing unit. Timing is tracked per
// dot, but the whole frame is rendered at once when vblank begins.
type PPU struct {
	host Host
	bus  *hwio.Table // CPU-exposed registers, $2000-$2007

	Cycle    int // Current cycle/pixel in scanline
	Scanline int // Current scanline
	Frame    uint64

	VRAM *hwio.Mem
	OAM  [oamSize]uint8

	vramAddr   uint16
	writeLatch bool
	scrollX    uint8
	scrollY    uint8

	screen *image.RGBA

	PPUCTRL   hwio.Reg8 `hwio:"offset=0x0,writeonly,wcb"`
	PPUMASK   hwio.Reg8 `hwio:"offset=0x1,writeonly,wcb"`
	PPUSTATUS hwio.Reg8 `hwio:"offset=0x2,readonly,rcb"`
	OAMADDR   hwio.Reg8 `hwio:"offset=0x3,writeonly"`
	OAMDATA   hwio.Reg8 `hwio:"offset=0x4,rcb,pcb,wcb"`
	PPUSCROLL hwio.Reg8 `hwio:"offset=0x5,writeonly,wcb"`
	PPUADDR   hwio.Reg8 `hwio:"offset=0x6,writeonly,wcb"`
	PPUDATA   hwio.Reg8 `hwio:"offset=0x7,rcb,pcb,wcb"`
}

func New(host Host) *PPU {
	p := &PPU{
		host:   host,
		bus:    hwio.NewTable("ppu"),
		VRAM:   hwio.NewMem("vram", vramSize, hwio.MemFlagReadWrite),
		screen: image.NewRGBA(image.Rect(0, 0, hwdefs.NTSCWidth, hwdefs.NTSCHeight)),
	}
	hwio.MustInitRegs(p)
	p.bus.MapBank(0x2000, p, 0)
	return p
}

// Output returns the frame buffer.
func (p *PPU) Output() *image.RGBA {
	return p.screen
}

func (p *PPU) Reset() {
	p.Scanline = 0
	p.Cycle = 0
	p.Frame = 0
	p.vramAddr = 0
	p.writeLatch = false
	p.scrollX = 0
	p.scrollY = 0
	p.PPUCTRL.Value = 0
	p.PPUMASK.Value = 0
	p.PPUSTATUS.Value = 0
	p.OAMADDR.Value = 0
}

// ReadRegister reads the CPU-exposed register at addr ($2000-$2007). Other
// addresses read as 0.
func (p *PPU) ReadRegister(addr uint16) uint8 {
	return p.bus.Read8(addr)
}

// PeekRegister is like ReadRegister, without side effects.
func (p *PPU) PeekRegister(addr uint16) uint8 {
	return p.bus.Peek8(addr)
}

// WriteRegister writes the CPU-exposed register at addr ($2000-$2007). Writes
// to other addresses are dropped.
func (p *PPU) WriteRegister(addr uint16, val uint8) {
	p.bus.Write8(addr, val)
}

// Step advances the PPU by one dot.
func (p *PPU) Step() {
	p.Cycle++
	if p.Cycle < hwdefs.NumCycles {
		return
	}

	p.Cycle = 0
	p.Scanline++

	switch {
	case p.Scanline == 241:
		p.vblankStart()
	case p.Scanline >= hwdefs.NumScanlines:
		p.Scanline = 0
		p.PPUSTATUS.ClearBit(vblank)
	}
}

func (p *PPU) vblankStart() {
	p.PPUSTATUS.SetBit(vblank)
	p.render()

	log.ModPPU.DebugZ("vblank").
		Uint("frame", uint(p.Frame)).
		Bool("nmi", p.PPUCTRL.GetBit(nmi)).
		End()

	if p.host != nil {
		p.host.FrameReady(p.Frame, p.screen)
		if p.PPUCTRL.GetBit(nmi) {
			p.host.TriggerNMI()
		}
	}
	p.Frame++
}
