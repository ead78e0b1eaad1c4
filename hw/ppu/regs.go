package ppu

import "nesav/emu/log"

const (
	// PPUCTRL bits
	// $2000

	// VRAM address increment per CPU read/write of PPUDATA
	// (0: +1 i.e. horizontal; 1: +32 i.e. vertical)
	vramIncr = 2

	// Sprite pattern table address (0: $0000; 1: $1000)
	spriteAddr = 3

	// Background pattern table address (0: $0000; 1: $1000)
	backgroundAddr = 4

	// Generate an NMI at the start of the
	// vertical blanking interval (0: off; 1: on)
	nmi = 7
)

const (
	// PPUSTATUS bits
	// $2002

	// Vertical blank has started (0: not in vblank; 1: in vblank).
	// Set at line 241, cleared after reading $2002 and at the end of
	// the frame.
	vblank = 7
)

// PPUCTRL: $2000
func (p *PPU) WritePPUCTRL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUCTRL").Hex8("val", val).End()
}

// PPUMASK: $2001
func (p *PPU) WritePPUMASK(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUMASK").Hex8("val", val).End()
}

// PPUSTATUS: $2002
func (p *PPU) ReadPPUSTATUS(val uint8) uint8 {
	p.writeLatch = false
	p.PPUSTATUS.ClearBit(vblank)
	return val
}

// OAMDATA: $2004
func (p *PPU) ReadOAMDATA(_ uint8) uint8 {
	return p.OAM[p.OAMADDR.Value]
}

func (p *PPU) PeekOAMDATA(_ uint8) uint8 {
	return p.OAM[p.OAMADDR.Value]
}

func (p *PPU) WriteOAMDATA(_, val uint8) {
	p.OAM[p.OAMADDR.Value] = val
	p.OAMADDR.Value++
}

// PPUSCROLL: $2005
func (p *PPU) WritePPUSCROLL(old, val uint8) {
	log.ModPPU.DebugZ("Write to PPUSCROLL").
		Hex8("val", val).
		Bool("latch", p.writeLatch).
		End()

	if !p.writeLatch { // first write
		p.scrollX = val
	} else { // second write
		p.scrollY = val
	}
	p.writeLatch = !p.writeLatch
}

// To read/write VRAM from CPU, PPUADDR is set to the address of the operation.
// It's a 16-bit register so 2 writes are necessary, high byte first.
// PPUADDR: $2006
func (p *PPU) WritePPUADDR(old, val uint8) {
	p.vramAddr = p.vramAddr<<8 | uint16(val)

	log.ModPPU.DebugZ("Write to PPUADDR").
		Hex8("val", val).
		Hex16("addr", p.vramAddr).
		End()
}

// PPUDATA: $2007
func (p *PPU) ReadPPUDATA(_ uint8) uint8 {
	val := p.VRAM.Read8(p.vramAddr, false)
	log.ModPPU.DebugZ("VRAM read").
		Hex16("addr", p.vramAddr).
		Hex8("val", val).
		End()

	p.incVRAMaddr()
	return val
}

func (p *PPU) PeekPPUDATA(_ uint8) uint8 {
	return p.VRAM.Read8(p.vramAddr, true)
}

// PPUDATA: $2007
func (p *PPU) WritePPUDATA(old, val uint8) {
	log.ModPPU.DebugZ("VRAM write").
		Hex16("addr", p.vramAddr).
		Hex8("val", val).
		End()

	p.VRAM.Write8(p.vramAddr, val)
	p.incVRAMaddr()
}

// After each i/o on PPUDATA, PPUADDR is incremented.
func (p *PPU) incVRAMaddr() {
	if p.PPUCTRL.GetBit(vramIncr) {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
}

// VRAMAddr returns the current VRAM address, as set through PPUADDR.
func (p *PPU) VRAMAddr() uint16 {
	return p.vramAddr
}

// Scroll returns the scroll position latched through PPUSCROLL.
func (p *PPU) Scroll() (x, y uint8) {
	return p.scrollX, p.scrollY
}
